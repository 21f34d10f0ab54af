package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModality(t *testing.T) {
	tests := []struct {
		tag  string
		want Modality
	}{
		{"content", Content},
		{"title", Title},
		{"title_subsentence", TitleSubsentence},
		{"paras", Paras},
		{"causes", Causes},
		{"court", Court},
		{"docType", DocType},
		{"topCause", TopCause},
		{"trialRound", TrialRound},
		{"name", Name},
		{"caseNumber", CaseNumber},
		{" court ", Court},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseModality(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModality_Composite(t *testing.T) {
	a, err := ParseModality("court+causes")
	require.NoError(t, err)
	b, err := ParseModality("causes+court")
	require.NoError(t, err)

	assert.Equal(t, KindComposite, a.Kind)
	assert.Equal(t, a, b, "composite order must not matter")
	assert.Equal(t, "causes+court", a.String())
}

func TestParseModality_Extension(t *testing.T) {
	m, err := ParseModality("x-judgment_summary")
	require.NoError(t, err)
	assert.Equal(t, KindOther, m.Kind)
	assert.Equal(t, "judgment_summary", m.Ext)
	assert.Equal(t, "x-judgment_summary", m.String())
}

func TestParseModality_Rejects(t *testing.T) {
	for _, tag := range []string{"", "titel", "Paras", "title+titel", "title+title", "x-", "x-  "} {
		t.Run(tag, func(t *testing.T) {
			_, err := ParseModality(tag)
			assert.ErrorIs(t, err, ErrUnknownModality)
		})
	}
}

func TestModalityRoundTrip(t *testing.T) {
	composite, err := Composite(KindCourt, KindDocType, KindTitle)
	require.NoError(t, err)
	ext, err := Extension("custom")
	require.NoError(t, err)

	for _, m := range []Modality{Content, Title, CaseNumber, composite, ext} {
		parsed, err := ParseModality(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
}

func TestModalityAsMapKey(t *testing.T) {
	seen := map[Modality]bool{}
	seen[MustParseModality("title")] = true
	seen[Title] = true
	seen[MustParseModality("paras")] = true
	assert.Len(t, seen, 2)
}

func TestMustParseModality_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseModality("nope") })
}
