package xmlsecgo

// SPDX-License-Identifier: MIT

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateURISyntax(t *testing.T) {
	require.NoError(t, validateURISyntax(""))
	require.NoError(t, validateURISyntax("#fragmentOnly"))
	require.NoError(t, validateURISyntax("http://example.org/doc.xml"))
	require.NoError(t, validateURISyntax("urn:example:id"))
}

func TestIsSameDocumentURI(t *testing.T) {
	require.True(t, isSameDocumentURI(""))
	require.True(t, isSameDocumentURI("#target"))
	require.False(t, isSameDocumentURI("http://example.org/doc.xml"))
}

func TestStripFragment(t *testing.T) {
	require.Equal(t, "target", stripFragment("#target"))
	require.Equal(t, "", stripFragment(""))
}
