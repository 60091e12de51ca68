package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRead_PadsShortRowsAndStripsBOM(t *testing.T) {
	in := "\ufeffid,title.en-US,title.fr-FR\n1,Hello\n2,World,Monde\n"

	tbl, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	require.Equal(t, []string{"id", "title.en-US", "title.fr-FR"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, "", tbl.Get(0, "title.fr-FR"))
	require.Equal(t, "Monde", tbl.Get(1, "title.fr-FR"))
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
}

func TestNew_DuplicateColumn(t *testing.T) {
	_, err := New([]string{"a", "a"}, nil)
	require.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestNew_RowTooLong(t *testing.T) {
	_, err := New([]string{"a"}, [][]string{{"1", "2"}})
	require.Error(t, err)
}

func TestSet_UnknownColumn(t *testing.T) {
	tbl, err := New([]string{"a"}, [][]string{{"1"}})
	require.NoError(t, err)

	require.Error(t, tbl.Set(0, "b", "x"))
	require.Error(t, tbl.Set(5, "a", "x"))
	require.NoError(t, tbl.Set(0, "a", "x"))
	require.Equal(t, "x", tbl.Get(0, "a"))
}

func TestWrite_RoundTrip(t *testing.T) {
	in := "id,note\n1,\"multi\nline, with comma\"\n2,\n"
	tbl, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))
	require.Equal(t, in, buf.String())
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "data.csv")

	tbl, err := New([]string{"a"}, [][]string{{"1"}})
	require.NoError(t, err)
	require.NoError(t, tbl.WriteFile(path))

	require.NoError(t, tbl.Set(0, "a", "2"))
	require.NoError(t, tbl.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a\n2\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestKinds(t *testing.T) {
	tbl, err := New(
		[]string{"qty", "price", "active", "name", "empty"},
		[][]string{
			{"1", "1.5", "true", "Chair", ""},
			{"", "2", "False", "Table", ""},
			{"30", "", "", "3", ""},
		},
	)
	require.NoError(t, err)

	require.Equal(t, KindInt, tbl.Kind("qty"))
	require.Equal(t, KindFloat, tbl.Kind("price"))
	require.Equal(t, KindBool, tbl.Kind("active"))
	require.Equal(t, KindString, tbl.Kind("name"))
	require.Equal(t, KindString, tbl.Kind("empty"))
	require.Equal(t, KindString, tbl.Kind("missing"))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in      string
		kind    Kind
		want    string
		wantErr bool
	}{
		{" 42 ", KindInt, "42", false},
		{"4.50", KindFloat, "4.5", false},
		{"TRUE", KindBool, "true", false},
		{"quarante-deux", KindInt, "quarante-deux", true},
		{"vrai", KindBool, "vrai", true},
		{"anything", KindString, "anything", false},
	}
	for _, tt := range tests {
		got, err := Coerce(tt.in, tt.kind)
		if tt.wantErr {
			require.Error(t, err, tt.in)
		} else {
			require.NoError(t, err, tt.in)
		}
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestGroups(t *testing.T) {
	columns := []string{"id", "title.en-US", "desc.en-US", "title.fr-FR", "title.de-DE", "desc.fr-FR", "sku"}

	groups := Groups(columns, ".")
	require.Len(t, groups, 2)

	require.Equal(t, "title", groups[0].Base)
	require.Equal(t, []string{"en-US", "fr-FR", "de-DE"}, groups[0].Languages)
	col, ok := groups[0].Column("fr-FR")
	require.True(t, ok)
	require.Equal(t, "title.fr-FR", col)

	require.Equal(t, "desc", groups[1].Base)
	_, ok = groups[1].Column("de-DE")
	require.False(t, ok)
}

func TestSplitColumn(t *testing.T) {
	base, lang, ok := SplitColumn("meta.title.en-US", ".")
	require.True(t, ok)
	require.Equal(t, "meta.title", base)
	require.Equal(t, "en-US", lang)

	for _, name := range []string{"sku", ".en-US", "title."} {
		_, _, ok := SplitColumn(name, ".")
		require.False(t, ok, name)
	}
}
