package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageNames(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   []string
	}{
		{"dotted", "package foo.bar;\nstruct S { uint8 x; };", []string{"foo", "bar"}},
		{"single", "package sample;", []string{"sample"}},
		{"none", "struct S { uint8 x; };", []string{"default"}},
		{"empty", "", []string{"default"}},
		{"first wins", "package a.b;\npackage c;", []string{"a", "b"}},
		{"after comment", "/* demo */\npackage x.y.z;", []string{"x", "y", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PackageNames(tt.schema))
		})
	}
}

func TestSchemaPath(t *testing.T) {
	assert.Equal(t, "foo/bar.zs", SchemaPath(PackageNames("package foo.bar;"), SchemaExt))
	assert.Equal(t, "default.zs", SchemaPath(PackageNames("struct S {};"), SchemaExt))
	assert.Equal(t, "a/b/c.py", SchemaPath([]string{"a", "b", "c"}, "py"))
	assert.Equal(t, "default.zs", SchemaPath(nil, SchemaExt))
}

func TestSchemaPath_DoesNotMutateInput(t *testing.T) {
	names := make([]string, 2, 8)
	names[0], names[1] = "foo", "bar"
	_ = SchemaPath(names, "zs")
	assert.Equal(t, []string{"foo", "bar"}, names)
}

func TestParseExtraArgs(t *testing.T) {
	assert.Equal(t, []string{"-withoutSourcesAmalgamation", "-setTopLevelPackage", "gen"},
		ParseExtraArgs("  -withoutSourcesAmalgamation \t-setTopLevelPackage   gen\n"))
	assert.Empty(t, ParseExtraArgs("   "))
}

func TestBuildRequest_Digest(t *testing.T) {
	a := sampleRequest()
	b := sampleRequest()
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Len(t, a.Digest(), 16)

	// Moving a value between sections must change the digest.
	c := BuildRequest{Schema: "s", Languages: []string{"python"}}
	d := BuildRequest{Schema: "s", ExtraArgs: []string{"python"}}
	assert.NotEqual(t, c.Digest(), d.Digest())
}
