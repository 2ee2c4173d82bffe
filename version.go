package xmlvalidator

// Version is the current release version.
const Version = "0.3.0"

// UserAgent identifies this tool in outbound HTTP requests.
const UserAgent = "validate-xml/" + Version
