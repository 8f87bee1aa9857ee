package version

// AppVersion is the teelog release version.
var AppVersion = "0.1.0"
