package repo

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pqhub/pqhub-cli/internal/resolve"
	"github.com/pqhub/pqhub-cli/internal/script"
	"github.com/pqhub/pqhub-cli/internal/storage"
	"github.com/pqhub/pqhub-cli/internal/workbook"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Open(t.TempDir(), Options{})
	require.NoError(t, err)
	return r
}

func mustCreate(t *testing.T, r *Repo, d Draft) script.Record {
	t.Helper()
	rec, err := r.Create(context.Background(), d)
	require.NoError(t, err)
	return rec
}

// writeRaw drops a file into the repository tree behind the facade's back.
func writeRaw(t *testing.T, r *Repo, relDir, file, content string) {
	t.Helper()
	dir := filepath.Join(r.Root(), relDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func findingKinds(findings []Finding) map[string]bool {
	kinds := make(map[string]bool)
	for _, f := range findings {
		kinds[f.Kind] = true
	}
	return kinds
}

func TestCreateAndRecord(t *testing.T) {
	r := testRepo(t)

	rec := mustCreate(t, r, Draft{
		Name:        "Sales Clean",
		Category:    "Staging",
		Tags:        []string{"sales"},
		Description: "strips header noise",
		Body:        "let x = Source in x",
	})
	require.Equal(t, "Sales Clean", rec.Name)
	require.Equal(t, "Staging", rec.Category)

	got, err := r.Record("sales clean")
	require.NoError(t, err)
	require.Equal(t, "let x = Source in x", got.Body)
	require.Equal(t, []string{"sales"}, got.Tags)

	e, ok := r.Get("Sales Clean")
	require.True(t, ok)
	require.Equal(t, "Staging/Sales Clean.pq", e.Path)
	_, err = os.Stat(filepath.Join(r.Root(), "Staging", "Sales Clean.pq"))
	require.NoError(t, err)
}

func TestCreateAppliesDefaults(t *testing.T) {
	r := testRepo(t)

	rec := mustCreate(t, r, Draft{Name: "Bare", Body: "1"})
	require.Equal(t, "Uncategorized", rec.Category)
	require.Equal(t, "1.0", rec.Version)
}

func TestCreateDuplicateName(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Report", Category: "A", Body: "1"})

	_, err := r.Create(context.Background(), Draft{Name: "REPORT", Category: "B", Body: "2"})
	require.Error(t, err)
	require.Len(t, r.Entries(), 1)
}

func TestRecordMissing(t *testing.T) {
	r := testRepo(t)

	_, err := r.Record("Nope")
	var nf *storage.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "Nope", nf.Name)
}

func TestUpdateMetadata(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Report", Category: "Staging", Body: "1"})

	desc := "monthly numbers"
	updated, err := r.Update(context.Background(), "Report", Edit{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "monthly numbers", updated.Description)

	// The change is on disk, not only in memory.
	rec, err := script.ParseFile(filepath.Join(r.Root(), "Staging", "Report.pq"))
	require.NoError(t, err)
	require.Equal(t, "monthly numbers", rec.Description)
}

func TestUpdateRelocates(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Report", Category: "Staging", Body: "let x = 1 in x"})

	cat := "Final"
	_, err := r.Update(context.Background(), "Report", Edit{Category: &cat})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(r.Root(), "Staging", "Report.pq"))
	require.True(t, os.IsNotExist(err))
	rec, err := r.Record("Report")
	require.NoError(t, err)
	require.Equal(t, "Final", rec.Category)
	require.Equal(t, "let x = 1 in x", rec.Body)

	e, _ := r.Get("Report")
	require.Equal(t, "Final/Report.pq", e.Path)
}

func TestUpdateRenameInUseRefused(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Base", Category: "Helpers", Body: "1"})
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"Base"}, Body: "Base()"})

	name := "Base2"
	_, err := r.Update(context.Background(), "Base", Edit{Name: &name})
	require.ErrorContains(t, err, `cannot rename "Base"`)
	require.ErrorContains(t, err, "Report")

	// The old name still resolves.
	_, err = r.Record("Base")
	require.NoError(t, err)
}

func TestUpdateRenameFree(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Draft", Category: "Staging", Body: "1"})

	name := "Final Report"
	updated, err := r.Update(context.Background(), "Draft", Edit{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Final Report", updated.Name)

	_, ok := r.Get("Draft")
	require.False(t, ok)
	e, ok := r.Get("Final Report")
	require.True(t, ok)
	require.Equal(t, "Staging/Final Report.pq", e.Path)
}

func TestRemoveInUse(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Base", Category: "Helpers", Body: "1"})
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"Base"}, Body: "Base()"})

	err := r.Remove(context.Background(), "Base", false)
	require.ErrorContains(t, err, `cannot remove "Base"`)

	require.NoError(t, r.Remove(context.Background(), "Base", true))
	_, ok := r.Get("Base")
	require.False(t, ok)
	_, err = os.Stat(filepath.Join(r.Root(), "Helpers", "Base.pq"))
	require.True(t, os.IsNotExist(err))
}

func TestRemoveMissing(t *testing.T) {
	r := testRepo(t)

	err := r.Remove(context.Background(), "Ghost", false)
	var nf *storage.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestBuildIndexFromTree(t *testing.T) {
	r := testRepo(t)
	writeRaw(t, r, "Staging", "Alpha.pq", "---\nname: Alpha\ncategory: Staging\n---\n\n1")
	writeRaw(t, r, "Helpers", "fn_Clean.pq", "---\nname: fn_Clean\ncategory: Helpers\n---\n\n2")

	rep, err := r.BuildIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Records, 2)
	require.Empty(t, rep.Issues)

	entries := r.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "fn_Clean", entries[0].Name)
	require.Equal(t, "Alpha", entries[1].Name)

	// A second pass over an unchanged tree indexes the same set.
	rep2, err := r.BuildIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, rep2.Records, 2)
	require.Equal(t, entries, r.Entries())
}

func TestBuildIndexReportsMalformed(t *testing.T) {
	r := testRepo(t)
	writeRaw(t, r, "Staging", "Good.pq", "---\nname: Good\n---\n\n1")
	writeRaw(t, r, "Staging", "broken.pq", "let x = 1 in x")

	rep, err := r.BuildIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
	require.Len(t, rep.Issues, 1)
	require.Equal(t, "Staging/broken.pq", rep.Issues[0].Path)

	_, ok := r.Get("Good")
	require.True(t, ok)
	require.Len(t, r.Entries(), 1)
}

func TestScanIgnoresForeignFiles(t *testing.T) {
	r := testRepo(t)
	writeRaw(t, r, "Staging", "Query.pq", "---\nname: Query\n---\n\n1")
	writeRaw(t, r, "Staging", "notes.txt", "not a script")
	writeRaw(t, r, ".hidden", "Secret.pq", "---\nname: Secret\n---\n\n1")

	rep, err := r.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
	require.Equal(t, "Query", rep.Records[0].Name)
	require.Empty(t, rep.Issues)
}

func TestCategories(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "A", Category: "Staging", Body: "1"})
	mustCreate(t, r, Draft{Name: "B", Category: "Final", Body: "1"})
	mustCreate(t, r, Draft{Name: "C", Category: "Staging", Body: "1"})

	require.Equal(t, []string{"Final", "Staging"}, r.Categories())
	require.Len(t, r.ByCategory("staging"), 2)
}

func TestOrderThroughRepo(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "1"})
	mustCreate(t, r, Draft{Name: "Base", Category: "Staging", Dependencies: []string{"fn_Clean"}, Body: "fn_Clean()"})
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"base"}, Body: "Base()"})

	// Roots and declared dependencies resolve case-insensitively.
	res, err := r.Order([]string{"report"}, resolve.Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"fn_Clean", "Base", "Report"}, res.Order)
	require.Empty(t, res.Omitted)
}

func TestOrderUnresolvedDependency(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"Ghost"}, Body: "Ghost()"})

	_, err := r.Order([]string{"Report"}, resolve.Options{})
	var ue *resolve.UnresolvedError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "Ghost", ue.Name)

	res, err := r.Order([]string{"Report"}, resolve.Options{Partial: true})
	require.NoError(t, err)
	require.Equal(t, []string{"Report"}, res.Order)
	require.Equal(t, []resolve.Omission{{Name: "Ghost", MissingFrom: "Report"}}, res.Omitted)
}

func TestTreeThroughRepo(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "1"})
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"fn_Clean", "Ghost"}, Body: "x"})

	node, err := r.Tree("report")
	require.NoError(t, err)
	require.Equal(t, "Report", node.Name)
	require.Len(t, node.Children, 2)
	require.Equal(t, "fn_Clean", node.Children[0].Name)
	require.Equal(t, "Ghost", node.Children[1].Name)
	require.True(t, node.Children[1].Unresolved)
}

func TestOrderedBodies(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "(t) => t"})
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"fn_Clean"}, Body: "fn_Clean(Source)"})

	queries, res, err := r.OrderedBodies([]string{"Report"}, resolve.Options{})
	require.NoError(t, err)
	require.Empty(t, res.Omitted)
	require.Equal(t, []workbook.Query{
		{Name: "fn_Clean", Body: "(t) => t"},
		{Name: "Report", Body: "fn_Clean(Source)"},
	}, queries)
}

func TestBodiesKeepsGivenOrder(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "A", Category: "X", Body: "a"})
	mustCreate(t, r, Draft{Name: "B", Category: "X", Body: "b"})

	queries, err := r.Bodies([]string{"b", "a"})
	require.NoError(t, err)
	require.Equal(t, []workbook.Query{{Name: "B", Body: "b"}, {Name: "A", Body: "a"}}, queries)
}

func TestInspect(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "(t as table) => t"})
	mustCreate(t, r, Draft{Name: "fn_Other", Category: "Helpers", Body: "(x) => x"})
	mustCreate(t, r, Draft{
		Name:         "Report",
		Category:     "Final",
		Dependencies: []string{"fn_Clean"},
		Body: "(optional limit as number) =>\n" +
			"let\n" +
			"    raw = Csv.Document(File.Contents(\"C:\\data\\sales.csv\")),\n" +
			"    clean = fn_Clean(raw),\n" +
			"    out = fn_Other(clean)\n" +
			"in\n" +
			"    out",
	})

	insp, err := r.Inspect("Report")
	require.NoError(t, err)

	// fn_Clean is declared; only fn_Other is suggested.
	require.Equal(t, []string{"fn_Other"}, insp.Suggested)

	require.Len(t, insp.Parameters, 1)
	require.Equal(t, "limit", insp.Parameters[0].Name)
	require.Equal(t, "number", insp.Parameters[0].Type)
	require.True(t, insp.Parameters[0].Optional)

	require.Len(t, insp.Sources, 1)
	require.Equal(t, "Csv.Document", insp.Sources[0].Func)
	require.Equal(t, `C:\data\sales.csv`, insp.Sources[0].Value)
}

func TestExtract(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "(t as table) => t"})

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Report.pq"), []byte("let r = fn_Clean(Source) in r"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "fn_Clean.pq"), []byte("(t) => t"), 0o644))

	rep, err := r.Extract(context.Background(), workbook.DirSource{Dir: src}, "Imported", false)
	require.NoError(t, err)
	require.Equal(t, []string{"Report"}, rep.Imported)
	require.Equal(t, []string{"fn_Clean"}, rep.Skipped)
	require.Empty(t, rep.Updated)
	require.Empty(t, rep.Failed)

	rec, err := r.Record("Report")
	require.NoError(t, err)
	require.Equal(t, "Imported", rec.Category)
	require.Equal(t, []string{"fn_Clean"}, rec.Dependencies)

	// With force the colliding query replaces the body in place.
	rep, err = r.Extract(context.Background(), workbook.DirSource{Dir: src}, "Imported", true)
	require.NoError(t, err)
	require.Contains(t, rep.Updated, "fn_Clean")

	clean, err := r.Record("fn_Clean")
	require.NoError(t, err)
	require.Equal(t, "(t) => t", clean.Body)
	require.Equal(t, "Helpers", clean.Category)
}

func TestExtractDefaultCategory(t *testing.T) {
	r := testRepo(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "Solo.pq"), []byte("1"), 0o644))

	rep, err := r.Extract(context.Background(), workbook.DirSource{Dir: src}, "", false)
	require.NoError(t, err)
	require.Equal(t, []string{"Solo"}, rep.Imported)

	rec, err := r.Record("Solo")
	require.NoError(t, err)
	require.Equal(t, "Uncategorized", rec.Category)
}

func TestPushStream(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "(t) => t"})
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"fn_Clean"}, Body: "fn_Clean(Source)"})

	queries, _, err := r.OrderedBodies([]string{"Report"}, resolve.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	rep, err := r.Push(context.Background(), workbook.StreamSink{W: &buf}, queries)
	require.NoError(t, err)
	require.Empty(t, rep.Failed())

	out := buf.String()
	require.Contains(t, out, "// fn_Clean\n")
	require.Contains(t, out, "// Report\n")
	require.Less(t, strings.Index(out, "// fn_Clean"), strings.Index(out, "// Report"))
}

func TestCheckupHealthy(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "1"})
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Dependencies: []string{"fn_Clean"}, Body: "fn_Clean()"})

	findings, err := r.Checkup(context.Background())
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestCheckupMissingFile(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Report", Category: "Final", Body: "1"})
	require.NoError(t, os.Remove(filepath.Join(r.Root(), "Final", "Report.pq")))

	findings, err := r.Checkup(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "missing-file", findings[0].Kind)
	require.Equal(t, "Report", findings[0].Subject)
}

func TestCheckupUnindexed(t *testing.T) {
	r := testRepo(t)
	writeRaw(t, r, "Staging", "Orphan.pq", "---\nname: Orphan\ncategory: Staging\n---\n\n1")

	findings, err := r.Checkup(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "unindexed", findings[0].Kind)
	require.Equal(t, "Orphan", findings[0].Subject)
}

func TestCheckupStaleAfterManualMove(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Report", Category: "Staging", Body: "1"})

	dest := filepath.Join(r.Root(), "Final")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.Rename(
		filepath.Join(r.Root(), "Staging", "Report.pq"),
		filepath.Join(dest, "Report.pq")))

	findings, err := r.Checkup(context.Background())
	require.NoError(t, err)
	kinds := findingKinds(findings)
	require.True(t, kinds["stale-index"], "kinds: %v", kinds)
	require.True(t, kinds["misplaced"], "kinds: %v", kinds)
}

func TestCheckupMalformed(t *testing.T) {
	r := testRepo(t)
	writeRaw(t, r, "Staging", "broken.pq", "let x = 1 in x")

	findings, err := r.Checkup(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "malformed", findings[0].Kind)
	require.Equal(t, "Staging/broken.pq", findings[0].Subject)
}

func TestCheckupDependencyProblems(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "A", Category: "X", Dependencies: []string{"B"}, Body: "B()"})
	mustCreate(t, r, Draft{Name: "B", Category: "X", Dependencies: []string{"A"}, Body: "A()"})
	mustCreate(t, r, Draft{Name: "C", Category: "X", Dependencies: []string{"Ghost"}, Body: "Ghost()"})

	findings, err := r.Checkup(context.Background())
	require.NoError(t, err)
	kinds := findingKinds(findings)
	require.True(t, kinds["cycle"], "kinds: %v", kinds)
	require.True(t, kinds["unresolved"], "kinds: %v", kinds)

	for _, f := range findings {
		if f.Kind == "unresolved" {
			require.Equal(t, "C", f.Subject)
			require.Equal(t, "Ghost", f.Detail)
		}
	}
}

func TestConcurrentReadsDuringRelocation(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "Report", Category: "Staging", Body: "let x = 1 in x"})

	stop := make(chan struct{})
	errs := make(chan error, 1)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := r.Record("Report"); err != nil {
					select {
					case errs <- err:
					default:
					}
					return
				}
			}
		}()
	}

	// Bounce the file between category folders while the readers hammer it.
	for i := 0; i < 10; i++ {
		cat := "Final"
		if i%2 == 1 {
			cat = "Staging"
		}
		_, err := r.Update(context.Background(), "Report", Edit{Category: &cat})
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	select {
	case err := <-errs:
		t.Fatalf("concurrent read failed: %v", err)
	default:
	}
}

func TestOpenRejectsMissingRoot(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
}

func TestOpenSurvivesCorruptSnapshot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.jsonl"), []byte("not json\n"), 0o644))

	r, err := Open(root, Options{})
	require.NoError(t, err)
	require.Error(t, r.Corrupt())
	require.Empty(t, r.Entries())

	// Rebuilding replaces the snapshot and clears the corruption.
	_, err = r.BuildIndex(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.Corrupt())

	findings, err := r.Checkup(context.Background())
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestSuggestForBody(t *testing.T) {
	r := testRepo(t)
	mustCreate(t, r, Draft{Name: "fn_Clean", Category: "Helpers", Body: "1"})
	mustCreate(t, r, Draft{Name: "Shared Helper", Category: "Helpers", Body: "1"})

	body := `let a = fn_clean(x), b = #"Shared Helper"(a) in b`
	require.Equal(t, []string{"Shared Helper", "fn_Clean"}, r.SuggestForBody(body, "Report"))

	// The script's own name never suggests itself.
	require.Empty(t, r.SuggestForBody("fn_Clean(1)", "fn_Clean"))
}
