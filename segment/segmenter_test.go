package segment

import (
	"strings"
	"testing"

	"github.com/poiesic/caselens/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(fragments []*core.Fragment) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = f.Text
	}
	return out
}

func sampleCase() *CaseSource {
	return &CaseSource{
		Title: "张三危险驾驶罪一审刑事判决书",
		Paras: []Paragraph{
			{Tag: "party_info", Content: "被告人张三，男。"},
			{Tag: "facts", Content: "2020年1月1日，被告人醉酒驾驶机动车。经鉴定血液酒精含量超标。\n\n案发后被告人如实供述。"},
			{Tag: "judgment", Content: ""},
		},
		Causes:     []string{"危险驾驶罪", " "},
		Court:      "某某市人民法院",
		DocType:    "判决书",
		TrialRound: "一审",
		CaseNumber: "(2020)某01刑初1号",
	}
}

func TestIndexSegmenter_Paras(t *testing.T) {
	s, err := NewIndexSegmenter()
	require.NoError(t, err)

	doc := &core.Document{ID: "case-1"}
	fragments, err := s.Segment(doc, sampleCase())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2020年1月1日，被告人醉酒驾驶机动车",
		"经鉴定血液酒精含量超标",
		"案发后被告人如实供述",
	}, texts(fragments))
	assert.Equal(t, fragments, doc.Fragments)

	assert.Equal(t, core.Location{1, 0}, fragments[0].Location, "line index continues after party_info")
	assert.Equal(t, core.Location{1, 1}, fragments[1].Location)
	assert.Equal(t, core.Location{3, 0}, fragments[2].Location, "line index counts blank lines")

	for _, f := range fragments {
		assert.Equal(t, core.Paras, f.Modality)
		assert.Equal(t, "case-1", f.ParentID)
		assert.Equal(t, "facts", f.Tags[ParaTag])
		assert.NotZero(t, f.ID)
		assert.NoError(t, core.ValidateFragment(f, core.DefaultMaxFragmentLength))
	}
}

func TestIndexSegmenter_RepeatedSentencesAcrossParagraphs(t *testing.T) {
	src := &CaseSource{Paras: []Paragraph{
		{Tag: "facts", Content: "经审理查明。被告人醉酒驾驶。"},
		{Tag: "reasoning", Content: "经审理查明。被告人如实供述。"},
		{Tag: "judgment", Content: "经审理查明。"},
	}}

	s, err := NewIndexSegmenter()
	require.NoError(t, err)
	fragments, err := s.Segment(&core.Document{ID: "c"}, src)
	require.NoError(t, err)
	require.Len(t, fragments, 5)

	ids := map[core.ID]core.Location{}
	for _, f := range fragments {
		if f.Text != "经审理查明" {
			continue
		}
		_, dup := ids[f.ID]
		assert.False(t, dup, "fragment at %v shares an id", f.Location)
		ids[f.ID] = f.Location
	}
	assert.Len(t, ids, 3)
	assert.Equal(t, core.Location{2, 0}, fragments[4].Location)
}

func TestIndexSegmenter_SkipTags(t *testing.T) {
	src := &CaseSource{Paras: []Paragraph{
		{Tag: "本院认为", Content: "本院认为被告人构成危险驾驶罪。"},
		{Tag: "facts", Content: "事实清楚。"},
	}}

	s, err := NewIndexSegmenter()
	require.NoError(t, err)
	fragments, err := s.Segment(&core.Document{ID: "c"}, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"事实清楚"}, texts(fragments))

	s, err = NewIndexSegmenter(WithSkipTags("facts"))
	require.NoError(t, err)
	fragments, err = s.Segment(&core.Document{ID: "c"}, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"本院认为被告人构成危险驾驶罪"}, texts(fragments))
}

func TestIndexSegmenter_OptionalFields(t *testing.T) {
	s, err := NewIndexSegmenter(WithFields(core.Title, core.Causes, core.Court, core.DocType, core.TrialRound, core.CaseNumber, core.TopCause))
	require.NoError(t, err)

	src := sampleCase()
	src.Title = "张三危险驾驶罪，一审刑事判决书"
	fragments, err := s.Segment(&core.Document{ID: "case-1"}, src)
	require.NoError(t, err)

	byModality := map[core.Modality][]*core.Fragment{}
	for _, f := range fragments {
		byModality[f.Modality] = append(byModality[f.Modality], f)
	}
	assert.Len(t, byModality[core.Paras], 3)
	require.Len(t, byModality[core.Title], 1)
	assert.Equal(t, []string{"危险驾驶罪"}, texts(byModality[core.Causes]), "blank causes are dropped")
	assert.Equal(t, []string{"某某市人民法院"}, texts(byModality[core.Court]))
	assert.Equal(t, []string{"判决书"}, texts(byModality[core.DocType]))
	assert.Equal(t, []string{"一审"}, texts(byModality[core.TrialRound]))
	assert.Equal(t, []string{"(2020)某01刑初1号"}, texts(byModality[core.CaseNumber]))
	assert.Empty(t, byModality[core.TopCause], "blank fields are dropped")

	title := byModality[core.Title][0]
	assert.Equal(t, []string{"张三危险驾驶罪", "一审刑事判决书"}, texts(title.Fragments))
	for i, sub := range title.Fragments {
		assert.Equal(t, core.TitleSubsentence, sub.Modality)
		assert.Equal(t, core.Location{0, i}, sub.Location)
		assert.Equal(t, "case-1", sub.ParentID)
	}

	doc := &core.Document{ID: "case-1", Fragments: fragments}
	assert.NoError(t, core.ValidateDocument(doc, core.DefaultMaxFragmentLength))
}

func TestIndexSegmenter_SingleClauseTitleHasNoSubFragments(t *testing.T) {
	s, err := NewIndexSegmenter(WithFields(core.Title), WithSkipTags())
	require.NoError(t, err)

	fragments, err := s.Segment(&core.Document{ID: "c"}, &CaseSource{Title: "刑事判决书"})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Empty(t, fragments[0].Fragments)
}

func TestIndexSegmenter_Errors(t *testing.T) {
	s, err := NewIndexSegmenter()
	require.NoError(t, err)

	_, err = s.Segment(&core.Document{ID: "c"}, nil)
	assert.ErrorIs(t, err, ErrMissingSource)

	_, err = s.Segment(&core.Document{}, sampleCase())
	assert.ErrorIs(t, err, core.ErrEmptyID)

	_, err = NewIndexSegmenter(WithFields(core.Content))
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = NewIndexSegmenter(WithMaxLength(0))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestIndexSegmenter_EmptyCase(t *testing.T) {
	s, err := NewIndexSegmenter()
	require.NoError(t, err)

	fragments, err := s.Segment(&core.Document{ID: "c"}, &CaseSource{Title: "标题"})
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestQuerySegmenter(t *testing.T) {
	s, err := NewQuerySegmenter()
	require.NoError(t, err)

	doc := &core.Document{ID: "q", Text: "我发生了交通事故\n\n  属于工伤，应该如何处理！ \n"}
	fragments, err := s.Segment(doc)
	require.NoError(t, err)

	require.Len(t, fragments, 2)
	assert.Equal(t, []string{"我发生了交通事故", "属于工伤，应该如何处理！"}, texts(fragments))
	assert.Equal(t, core.Location{0, 0}, fragments[0].Location)
	assert.Equal(t, core.Location{2, 0}, fragments[1].Location)
	assert.Equal(t, fragments, doc.Fragments)

	assert.Empty(t, fragments[0].Fragments, "single clause lines have no sub-fragments")
	clauses := fragments[1].Fragments
	assert.Equal(t, []string{"属于工伤", "应该如何处理"}, texts(clauses))
	for i, sub := range clauses {
		assert.Equal(t, core.Location{2, i}, sub.Location)
		assert.Empty(t, sub.Fragments)
	}
	for _, f := range Flatten(fragments) {
		assert.Equal(t, core.Content, f.Modality)
		assert.Equal(t, "q", f.ParentID)
	}
	assert.Len(t, Flatten(fragments), 4)
}

func TestQuerySegmenter_Options(t *testing.T) {
	s, err := NewQuerySegmenter(WithQueryModality(core.Paras), WithMaxLength(4), WithTruncation(core.Paras, Tail))
	require.NoError(t, err)

	fragments, err := s.Segment(&core.Document{ID: "q", Text: "一二三四五六"})
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, core.Paras, fragments[0].Modality)
	assert.Equal(t, "三四五六", fragments[0].Text)

	_, err = NewQuerySegmenter(WithQueryModality(core.Modality{}))
	assert.ErrorIs(t, err, core.ErrUnknownModality)
}

func TestQuerySegmenter_BlankQuery(t *testing.T) {
	s, err := NewQuerySegmenter()
	require.NoError(t, err)

	fragments, err := s.Segment(&core.Document{ID: "q", Text: " \n　\n"})
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestTruncator(t *testing.T) {
	long := strings.Repeat("甲", 60) + strings.Repeat("乙", 10)

	tr := NewTruncator()
	tr.Directions[core.Title] = Tail

	head := tr.Truncate(long, core.Paras)
	assert.Equal(t, strings.Repeat("甲", 60)+strings.Repeat("乙", 4), head)

	tail := tr.Truncate(long, core.Title)
	assert.Equal(t, strings.Repeat("甲", 54)+strings.Repeat("乙", 10), tail)

	assert.Equal(t, "短", tr.Truncate("短", core.Title))

	exact := strings.Repeat("丙", core.DefaultMaxFragmentLength)
	assert.Equal(t, exact, tr.Truncate(exact, core.Paras))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("tail")
	require.NoError(t, err)
	assert.Equal(t, Tail, d)
	assert.Equal(t, "tail", d.String())

	d, err = ParseDirection("head")
	require.NoError(t, err)
	assert.Equal(t, Head, d)

	_, err = ParseDirection("middle")
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestFlatten(t *testing.T) {
	s, err := NewIndexSegmenter(WithFields(core.Title))
	require.NoError(t, err)

	fragments, err := s.Segment(&core.Document{ID: "c"}, &CaseSource{Title: "甲，乙", Paras: []Paragraph{{Tag: "facts", Content: "事实。"}}})
	require.NoError(t, err)

	flat := Flatten(fragments)
	assert.Equal(t, []string{"事实", "甲，乙", "甲", "乙"}, texts(flat))
}

func TestCaseSource_Metadata(t *testing.T) {
	md := sampleCase().Metadata()
	assert.Equal(t, "某某市人民法院", md["court"])
	assert.Equal(t, "一审", md["trialRound"])
	assert.Equal(t, "危险驾驶罪", md["causes"])
	_, ok := md["topCause"]
	assert.False(t, ok)
}

func TestTerms(t *testing.T) {
	md := map[string]string{
		"causes":     "危险驾驶罪、交通肇事罪",
		"court":      "某某市人民法院",
		"trialRound": " 一审 ",
		"title":      "ignored",
	}
	terms := Terms("张三危险驾驶罪，一审刑事判决书", md)
	assert.Equal(t, []string{
		"张三危险驾驶罪", "一审刑事判决书",
		"危险驾驶罪", "交通肇事罪",
		"某某市人民法院", "一审",
	}, terms)

	assert.Empty(t, Terms("", nil))
}
