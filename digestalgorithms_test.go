package xmlsecgo

// SPDX-License-Identifier: MIT

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ripemd160"
)

func TestRIPEMD160DigestSuiteMatchesPrimitive(t *testing.T) {
	r := ScopedRegistry()
	suite, err := r.LookupDigest(DigestRIPEMD160AlgorithmID)
	require.NoError(t, err)

	h := suite.Hash.New()
	h.Write([]byte("digest input"))

	want := ripemd160.New()
	want.Write([]byte("digest input"))
	require.Equal(t, want.Sum(nil), h.Sum(nil))
}

func TestReferenceDigestWithRIPEMD160Validates(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<root Id="target"><p>x</p></root>`))

	ref := NewReference("#target", DigestRIPEMD160AlgorithmID, nil)
	ref.SourceDocument = doc

	ctx := &Context{}
	require.NoError(t, ref.Digest(ctx))
	require.Len(t, ref.DigestValue(), 20)

	ok, err := ref.Validate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}
