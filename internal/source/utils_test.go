package source

import (
	"path/filepath"
	"testing"
)

func TestRelativePathForViewsTree(t *testing.T) {
	project := t.TempDir()
	views := filepath.Join(project, "views")

	tests := []struct {
		name   string
		target string
		base   string
		want   string
	}{
		{
			name:   "document at views root",
			target: filepath.Join(views, "index.gohtml"),
			base:   project,
			want:   "views/index.gohtml",
		},
		{
			name:   "partial nested under views",
			target: filepath.Join(views, "partials", "nav.gohtml"),
			base:   project,
			want:   "views/partials/nav.gohtml",
		},
		{
			name:   "walk started inside views",
			target: filepath.Join(views, "partials", "..", "layout.gohtml"),
			base:   views,
			want:   "layout.gohtml",
		},
		{
			name:   "base itself",
			target: views,
			base:   views,
			want:   ".",
		},
		{
			name:   "sibling tree falls back to absolute",
			target: filepath.Join(project, "emails", "welcome.gohtml"),
			base:   views,
			want:   normalizePath(filepath.Join(project, "emails", "welcome.gohtml")),
		},
		{
			name:   "dot-dot prefixed name stays inside",
			target: filepath.Join(views, "..drafts", "wip.gohtml"),
			base:   views,
			want:   "..drafts/wip.gohtml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelativePath(tt.target, tt.base)
			if err != nil {
				t.Fatalf("RelativePath(%q, %q): %v", tt.target, tt.base, err)
			}
			if got != tt.want {
				t.Errorf("RelativePath(%q, %q) = %q, want %q", tt.target, tt.base, got, tt.want)
			}
		})
	}
}

func TestFormatPathRelativeToProject(t *testing.T) {
	project := t.TempDir()
	fs := NewFileSetWithBase(project)
	file := fs.Get(fs.AddVirtual(filepath.Join(project, "views", "partials", "nav.gohtml"), []byte("<nav/>")))

	if got := file.FormatPath("relative", fs.BaseDir()); got != "views/partials/nav.gohtml" {
		t.Errorf("relative = %q", got)
	}
	outside := fs.Get(fs.AddVirtual(filepath.Join(filepath.Dir(project), "shared", "layout.gohtml"), nil))
	if got := outside.FormatPath("relative", fs.BaseDir()); !filepath.IsAbs(filepath.FromSlash(got)) {
		t.Errorf("document outside the project should print absolute, got %q", got)
	}
}
