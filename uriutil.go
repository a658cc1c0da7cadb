package xmlsecgo

// SPDX-License-Identifier: MIT

import (
	"net/url"
	"strings"
)

// validateURISyntax checks that s parses as a URI when non-empty and
// non-fragment, the constraint on Reference.uri and on the Type/Encoding
// attributes.
func validateURISyntax(s string) error {
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "#") {
		return nil
	}
	if _, err := url.Parse(s); err != nil {
		return newInvalidInputError("not a valid URI: " + s)
	}
	return nil
}

func isSameDocumentURI(uri string) bool {
	return uri == "" || strings.HasPrefix(uri, "#")
}

func stripFragment(uri string) string {
	return strings.TrimPrefix(uri, "#")
}

func parseURLSafe(s string) (*url.URL, error) {
	return url.Parse(s)
}
