package frame

// Version is reported by the CLI and the catalog server.
const Version = "0.1.0"
