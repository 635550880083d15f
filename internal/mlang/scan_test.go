package mlang

import (
	"reflect"
	"testing"
)

func TestCalls(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "user calls survive filtering",
			body: `let
    Source = Csv.Document(File.Contents("C:\data\sales.csv")),
    Cleaned = fn_CleanHeaders(Source),
    Final = Table.SelectRows(Cleaned, each [Amount] > 0)
in
    Final`,
			want: []string{"fn_CleanHeaders"},
		},
		{
			name: "quoted reference kept verbatim",
			body: `let Out = #"Shared Helper"(fn_Base()) in Out`,
			want: []string{`#"Shared Helper"`, "fn_Base"},
		},
		{
			name: "quoted name that looks builtin is kept",
			body: `#"Table.FromRows"(x)`,
			want: []string{`#"Table.FromRows"`},
		},
		{
			name: "keywords are not calls",
			body: `each (x) => if fn_Check(x) then x else null`,
			want: []string{"fn_Check"},
		},
		{
			name: "duplicates collapse",
			body: `fn_A(1) + fn_A(2) + fn_A(3)`,
			want: []string{"fn_A"},
		},
		{
			name: "builtins filtered case sensitively",
			body: `Table.Buffer(lookupTable(x))`,
			want: []string{"lookupTable"},
		},
		{
			name: "data sources filtered case insensitively",
			body: `sql.database(srv, db)`,
			want: nil,
		},
		{
			name: "no calls",
			body: `let a = 1 in a`,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calls(tt.body)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Calls() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCallsSorted(t *testing.T) {
	body := `fn_Zeta(fn_Alpha(fn_Mid()))`
	got := Calls(body)
	want := []string{"fn_Alpha", "fn_Mid", "fn_Zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Calls() = %v, want sorted %v", got, want)
	}
}

func TestSuggest(t *testing.T) {
	known := []string{"fn_CleanHeaders", "Shared Helper", "Base Query"}

	tests := []struct {
		name string
		body string
		self string
		want []string
	}{
		{
			name: "bare and quoted references resolve",
			body: `#"Shared Helper"(fn_CleanHeaders(x))`,
			self: "Report",
			want: []string{"Shared Helper", "fn_CleanHeaders"},
		},
		{
			name: "unknown names dropped",
			body: `fn_Other(fn_CleanHeaders(x))`,
			self: "Report",
			want: []string{"fn_CleanHeaders"},
		},
		{
			name: "self reference excluded",
			body: `fn_CleanHeaders(#"Base Query"())`,
			self: "fn_CleanHeaders",
			want: []string{"Base Query"},
		},
		{
			name: "nothing known",
			body: `fn_Mystery(x)`,
			self: "Report",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Suggest(tt.body, known, tt.self)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Suggest() = %v, want %v", got, tt.want)
			}
		})
	}
}
