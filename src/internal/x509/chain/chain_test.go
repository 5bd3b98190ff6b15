// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"crypto/x509"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brylex/sancus/src/internal/testutil/pki"
	x509certs "github.com/brylex/sancus/src/internal/x509/certs"
	x509chain "github.com/brylex/sancus/src/internal/x509/chain"
	"github.com/brylex/sancus/src/internal/x509/dn"
	"github.com/brylex/sancus/src/internal/x509/truststore"
)

type hierarchy struct {
	root, intermediate, leaf *pki.Authority
}

func newHierarchy(t *testing.T) hierarchy {
	t.Helper()
	root := pki.NewRoot(t, "Chain Root CA")
	intermediate := root.NewIntermediate(t, "Chain Intermediate CA")
	leaf := intermediate.NewLeaf(t, "chain.example.com")
	return hierarchy{root: root, intermediate: intermediate, leaf: leaf}
}

func TestNew(t *testing.T) {
	h := newHierarchy(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Full Chain Any Order Is Complete",
			testFunc: func(t *testing.T) {
				ch, err := x509chain.New(h.root.Cert, h.leaf.Cert, h.intermediate.Cert)
				require.NoError(t, err)

				assert.True(t, ch.IsComplete())
				list := ch.ToList()
				require.Len(t, list, 3)
				assert.True(t, list[0].Equal(h.leaf.Cert))
				assert.True(t, list[1].Equal(h.intermediate.Cert))
				assert.True(t, list[2].Equal(h.root.Cert))

				last, ok := ch.Last()
				require.True(t, ok)
				assert.Equal(t, x509chain.ResolvedByServer, last.ResolvedBy())
				assert.True(t, last.IsTerminal())
			},
		},
		{
			name: "Leaf Only Ends In Placeholder",
			testFunc: func(t *testing.T) {
				ch, err := x509chain.New(h.leaf.Cert)
				require.NoError(t, err)

				assert.False(t, ch.IsComplete())
				assert.Equal(t, 2, ch.Len())
				assert.Len(t, ch.ToList(), 1)

				last, ok := ch.Last()
				require.True(t, ok)
				assert.True(t, last.IsPlaceholder())
				assert.Nil(t, last.Certificate())
				assert.Equal(t, x509chain.ResolvedByMissing, last.ResolvedBy())
				assert.True(t, last.Identity().Equal(dn.Subject(h.intermediate.Cert)))
			},
		},
		{
			name: "Partial Chain Expects Root",
			testFunc: func(t *testing.T) {
				ch, err := x509chain.New(h.intermediate.Cert, h.leaf.Cert)
				require.NoError(t, err)

				last, ok := ch.Last()
				require.True(t, ok)
				assert.Equal(t, x509chain.ResolvedByMissing, last.ResolvedBy())
				assert.True(t, last.Identity().Equal(dn.Subject(h.root.Cert)))
			},
		},
		{
			name: "Self Signed Alone Is Complete",
			testFunc: func(t *testing.T) {
				ch, err := x509chain.New(h.root.Cert)
				require.NoError(t, err)
				assert.True(t, ch.IsComplete())
				assert.Equal(t, 1, ch.Len())
			},
		},
		{
			name: "Duplicates Are Dropped",
			testFunc: func(t *testing.T) {
				ch, err := x509chain.New(h.leaf.Cert, h.leaf.Cert, h.intermediate.Cert)
				require.NoError(t, err)
				assert.Len(t, ch.ToList(), 2)
			},
		},
		{
			name: "Certificates Past The Root Go To The Store",
			testFunc: func(t *testing.T) {
				stray := pki.NewRoot(t, "Stray Root CA")
				ch, err := x509chain.New(h.leaf.Cert, h.intermediate.Cert, h.root.Cert, stray.Cert)
				require.NoError(t, err)

				assert.True(t, ch.IsComplete())
				assert.Len(t, ch.ToList(), 3)
				_, ok := ch.Store().Contains(stray.Cert)
				assert.True(t, ok)
			},
		},
		{
			name: "All Links Start Untrusted",
			testFunc: func(t *testing.T) {
				ch, err := x509chain.New(h.leaf.Cert)
				require.NoError(t, err)
				for _, l := range ch.Links() {
					assert.Equal(t, x509chain.TrustedByNone, l.TrustedBy())
					assert.False(t, l.IsTrusted())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestNewInvalidArguments(t *testing.T) {
	h := newHierarchy(t)

	_, err := x509chain.New()
	assert.ErrorIs(t, err, x509chain.ErrInvalidArgument)

	_, err = x509chain.New(h.leaf.Cert, nil)
	assert.ErrorIs(t, err, x509chain.ErrInvalidArgument)

	_, err = x509chain.NewWithStore(nil, h.leaf.Cert)
	assert.ErrorIs(t, err, x509chain.ErrInvalidArgument)
}

func TestApply(t *testing.T) {
	h := newHierarchy(t)

	tests := []struct {
		name     string
		testFunc func(t *testing.T, ch *x509chain.Chain)
	}{
		{
			name: "Fills Placeholder And Extends",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				gap, ok := ch.FirstUnresolved()
				require.True(t, ok)

				require.NoError(t, ch.Apply(gap, h.intermediate.Cert, "DIR"))

				link, _ := ch.Link(gap)
				assert.Equal(t, "DIR", link.ResolvedBy())
				assert.False(t, ch.IsComplete())

				last, _ := ch.Last()
				assert.True(t, last.IsPlaceholder())
				assert.True(t, last.Identity().Equal(dn.Subject(h.root.Cert)))
				assert.Len(t, ch.Store().AliasesWithTag("DIR"), 1)
			},
		},
		{
			name: "Self Signed Becomes Last",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				gap, _ := ch.FirstUnresolved()
				require.NoError(t, ch.Apply(gap, h.intermediate.Cert, "DIR"))
				gap, _ = ch.FirstUnresolved()
				require.NoError(t, ch.Apply(gap, h.root.Cert, "corp"))

				assert.True(t, ch.IsComplete())
				assert.Equal(t, gap, ch.LastIndex())
				_, more := ch.FirstUnresolved()
				assert.False(t, more)
			},
		},
		{
			name: "Rejects Resolved Link",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				err := ch.Apply(0, h.leaf.Cert, "DIR")
				assert.ErrorIs(t, err, x509chain.ErrAlreadyResolved)
			},
		},
		{
			name: "Rejects Mismatched Identity",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				gap, _ := ch.FirstUnresolved()
				err := ch.Apply(gap, h.root.Cert, "DIR")
				assert.ErrorIs(t, err, x509chain.ErrIdentityMismatch)

				link, _ := ch.Link(gap)
				assert.True(t, link.IsPlaceholder(), "chain must be unchanged")
				assert.Zero(t, ch.Store().Len())
			},
		},
		{
			name: "Rejects Bad Arguments",
			testFunc: func(t *testing.T, ch *x509chain.Chain) {
				gap, _ := ch.FirstUnresolved()
				assert.ErrorIs(t, ch.Apply(gap, nil, "DIR"), x509chain.ErrInvalidArgument)
				assert.ErrorIs(t, ch.Apply(gap, h.intermediate.Cert, ""), x509chain.ErrInvalidArgument)
				assert.ErrorIs(t, ch.Apply(42, h.intermediate.Cert, "DIR"), x509chain.ErrNoSuchLink)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := x509chain.New(h.leaf.Cert)
			require.NoError(t, err)
			tt.testFunc(t, ch)
		})
	}
}

func TestPopulate(t *testing.T) {
	h := newHierarchy(t)

	t.Run("Empty Chain", func(t *testing.T) {
		ch := x509chain.NewEmpty(nil)
		assert.True(t, ch.IsEmpty())
		_, ok := ch.Head()
		assert.False(t, ok)
		_, ok = ch.Last()
		assert.False(t, ok)

		placed, err := ch.Populate([]*x509.Certificate{h.intermediate.Cert, h.leaf.Cert}, x509chain.ResolvedByServer)
		require.NoError(t, err)
		assert.Equal(t, 2, placed)

		head, ok := ch.Head()
		require.True(t, ok)
		assert.True(t, head.Certificate().Equal(h.leaf.Cert))
		last, _ := ch.Last()
		assert.Equal(t, x509chain.ResolvedByMissing, last.ResolvedBy())
	})

	t.Run("Existing Chain Fills Matching Placeholders", func(t *testing.T) {
		ch, err := x509chain.New(h.leaf.Cert)
		require.NoError(t, err)

		placed, err := ch.Populate([]*x509.Certificate{h.root.Cert, h.leaf.Cert, h.intermediate.Cert}, x509chain.ResolvedByServer)
		require.NoError(t, err)
		assert.Equal(t, 2, placed, "the leaf is already resolved")
		assert.True(t, ch.IsComplete())
	})

	t.Run("Invalid Input", func(t *testing.T) {
		ch := x509chain.NewEmpty(nil)
		_, err := ch.Populate(nil, x509chain.ResolvedByServer)
		assert.ErrorIs(t, err, x509chain.ErrInvalidArgument)
		_, err = ch.Populate([]*x509.Certificate{h.leaf.Cert}, "")
		assert.ErrorIs(t, err, x509chain.ErrInvalidArgument)
	})
}

func TestEnsureIssuer(t *testing.T) {
	h := newHierarchy(t)

	ch, err := x509chain.New(h.leaf.Cert)
	require.NoError(t, err)

	issuer, ok := ch.EnsureIssuer(0)
	require.True(t, ok)
	existing, _ := ch.Issuer(0)
	assert.Equal(t, existing, issuer, "an existing issuer link is reused")

	_, ok = ch.EnsureIssuer(issuer)
	assert.False(t, ok, "placeholders have no issuer")

	root, err := x509chain.New(h.root.Cert)
	require.NoError(t, err)
	_, ok = root.EnsureIssuer(0)
	assert.False(t, ok, "self-signed links are terminal")
}

func TestNavigation(t *testing.T) {
	h := newHierarchy(t)
	ch, err := x509chain.New(h.intermediate.Cert, h.leaf.Cert)
	require.NoError(t, err)

	var indices []int
	for i := range ch.Links() {
		indices = append(indices, i)
	}
	require.Len(t, indices, 3)
	assert.Equal(t, 0, indices[0])

	for n := 1; n < len(indices); n++ {
		prev, ok := ch.Predecessor(indices[n])
		require.True(t, ok)
		assert.Equal(t, indices[n-1], prev)

		next, ok := ch.Issuer(indices[n-1])
		require.True(t, ok)
		assert.Equal(t, indices[n], next)
	}

	_, ok := ch.Predecessor(0)
	assert.False(t, ok)

	// Links is restartable and stops early when asked.
	var first []int
	for i := range ch.Links() {
		first = append(first, i)
		break
	}
	assert.Equal(t, []int{0}, first)
}

func TestLinkStringsAndMarking(t *testing.T) {
	h := newHierarchy(t)
	ch, err := x509chain.New(h.leaf.Cert, h.intermediate.Cert)
	require.NoError(t, err)

	assert.True(t, ch.MarkTrusted(1, "corp"))
	assert.False(t, ch.MarkTrusted(1, "other"), "existing marks are never replaced")
	assert.False(t, ch.MarkTrusted(0, x509chain.TrustedByNone))

	link, _ := ch.Link(1)
	assert.Equal(t, "corp", link.TrustedBy())

	lines := strings.Split(strings.TrimSpace(ch.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[SERVER ][U] "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[SERVER ][T] "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "[MISSING][U] "), lines[2])
	assert.Contains(t, lines[2], "CN=Chain Root CA")
}

func TestEncodePEM(t *testing.T) {
	h := newHierarchy(t)
	ch, err := x509chain.New(h.leaf.Cert, h.intermediate.Cert)
	require.NoError(t, err)

	certs, err := x509certs.New().DecodeMultiple(ch.EncodePEM())
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.True(t, certs[0].Equal(h.leaf.Cert))
}

func TestChainSharesStore(t *testing.T) {
	h := newHierarchy(t)
	store := truststore.New()

	ch, err := x509chain.NewWithStore(store, h.leaf.Cert)
	require.NoError(t, err)
	assert.Same(t, store, ch.Store())

	gap, _ := ch.FirstUnresolved()
	require.NoError(t, ch.Apply(gap, h.intermediate.Cert, "REMOTE"))
	assert.Equal(t, 1, store.Len())
}

func TestRendering(t *testing.T) {
	h := newHierarchy(t)
	ch, err := x509chain.New(h.leaf.Cert, h.intermediate.Cert)
	require.NoError(t, err)

	t.Run("ASCII Tree", func(t *testing.T) {
		tree := ch.RenderASCIITree()
		assert.Contains(t, tree, x509chain.RoleLeaf)
		assert.Contains(t, tree, x509chain.RoleIntermediate)
		assert.Contains(t, tree, x509chain.RoleMissing)
		assert.Contains(t, tree, "└── ")
	})

	t.Run("Table", func(t *testing.T) {
		table := ch.RenderTable()
		assert.Contains(t, strings.ToUpper(table), "RESOLVED BY")
		assert.Contains(t, table, "MISSING")
		assert.Contains(t, table, "chain.example.com")
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := ch.ToVisualizationJSON()
		require.NoError(t, err)

		var viz x509chain.Visualization
		require.NoError(t, json.Unmarshal(data, &viz))
		assert.Equal(t, 3, viz.ChainLength)
		assert.False(t, viz.Complete)
		require.Len(t, viz.Links, 3)
		assert.True(t, viz.Links[2].Placeholder)
		assert.Equal(t, x509chain.RoleMissing, viz.Links[2].Role)
		assert.Len(t, viz.Relationships, 2)
	})

	t.Run("Empty Chain", func(t *testing.T) {
		empty := x509chain.NewEmpty(nil)
		assert.Equal(t, "No certificates in chain", empty.RenderASCIITree())
		assert.Equal(t, "No certificates to display", empty.RenderTable())
	})

	t.Run("Root Role", func(t *testing.T) {
		full, err := x509chain.New(h.leaf.Cert, h.intermediate.Cert, h.root.Cert)
		require.NoError(t, err)
		assert.Contains(t, full.RenderASCIITree(), x509chain.RoleRoot)

		self, err := x509chain.New(h.root.Cert)
		require.NoError(t, err)
		assert.Contains(t, self.RenderASCIITree(), x509chain.RoleSelfSigned)
	})
}
