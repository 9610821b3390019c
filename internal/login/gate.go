package login

// Enabled reports whether the submit control may be enabled for the given
// field contents. Whitespace counts as content.
func Enabled(identifier, secret string) bool {
	return identifier != "" && secret != ""
}
