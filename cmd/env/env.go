package env

// Prefix is the environment variable prefix for every flag
const Prefix = "UFRATES"
