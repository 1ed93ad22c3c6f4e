// Package sii provides the UF (Unidad de Fomento) source backed by the
// Chilean tax authority (SII) website.
//
// # Source
//
// URL: https://www.sii.cl/valores_y_fechas/uf/uf{year}.htm
//
// The SII publishes one page per year. Each page carries a single table
// (id "table_export") with one row per day of the month and one cell per
// month:
//
//	<table id="table_export">
//	  <tbody>
//	    <tr><th>1</th><td>35.122,26</td> ... <td>37.086,25</td></tr>
//	    ...
//	  </tbody>
//	</table>
//
// The value of day d, month m lives in cell m-1 of row d-1. Cells for days
// that have not been published yet (or do not exist) are empty.
//
// # Components
//
//   - Fetcher issues a single GET for a page, with a bounded timeout and a
//     fixed user agent, and classifies every failure (see package failure)
//   - Extract walks a page down to a single cell using configurable selectors
//   - Normalize converts the "15.432,10" format into a decimal
package sii
