package vpath

import "testing"

// TestNormalize_RootAliases проверяет, что "/", "" и "/Home"
// разрешаются в корень scope.
func TestNormalize_RootAliases(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", Root},
		{"/", Root},
		{"/Home", Root},
		{"/Home/", Root},
		{"  /Home ", Root},
		{"/Home/Docs", "/Home/Docs"},
		{"/Home/Docs/", "/Home/Docs"},
		{"/Home//Docs", "/Home/Docs"},
		{"/Home/./Docs", "/Home/Docs"},
		{"/Home/Docs/../Photos", "/Home/Photos"},
		{"Home/Docs", "/Home/Docs"},
	}

	for _, tc := range cases {
		got := Normalize(tc.in)
		if got != tc.want {
			t.Errorf("Normalize(%q): ожидалось %q, получено %q", tc.in, tc.want, got)
		}
	}
}

// TestIsRoot проверяет распознавание синонимов корня.
func TestIsRoot(t *testing.T) {
	for _, p := range []string{"", "/", "/Home", "/Home/"} {
		if !IsRoot(p) {
			t.Errorf("IsRoot(%q): ожидалось true", p)
		}
	}
	for _, p := range []string{"/Home/Docs", "/Docs"} {
		if IsRoot(p) {
			t.Errorf("IsRoot(%q): ожидалось false", p)
		}
	}
}

// TestJoinParentBase проверяет согласованность Join/Parent/Base.
func TestJoinParentBase(t *testing.T) {
	p := Join("/Home", "Docs")
	if p != "/Home/Docs" {
		t.Fatalf("Join: ожидалось /Home/Docs, получено %s", p)
	}
	if Parent(p) != "/Home" {
		t.Errorf("Parent: ожидалось /Home, получено %s", Parent(p))
	}
	if Base(p) != "Docs" {
		t.Errorf("Base: ожидалось Docs, получено %s", Base(p))
	}

	// Родитель корня — корень
	if Parent(Root) != Root {
		t.Errorf("Parent(Root): ожидалось %s, получено %s", Root, Parent(Root))
	}

	// Join от синонима корня
	if Join("/", "Docs") != "/Home/Docs" {
		t.Errorf("Join(\"/\", Docs): получено %s", Join("/", "Docs"))
	}
	if Join("", "Docs") != "/Home/Docs" {
		t.Errorf("Join(\"\", Docs): получено %s", Join("", "Docs"))
	}
}

// TestValidateName проверяет валидацию имён.
func TestValidateName(t *testing.T) {
	for _, name := range []string{"Docs", "отчёты 2026", "a.b"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q): неожиданная ошибка %v", name, err)
		}
	}
	for _, name := range []string{"", "  ", "a/b", "a\\b", ".", ".."} {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q): ожидалась ошибка", name)
		}
	}
}

// TestUnderRoot проверяет принадлежность путей корню scope.
func TestUnderRoot(t *testing.T) {
	for _, p := range []string{"/Home", "/Home/Docs", "/", ""} {
		if !UnderRoot(p) {
			t.Errorf("UnderRoot(%q): ожидалось true", p)
		}
	}
	if UnderRoot("/Homework") {
		t.Error("UnderRoot(/Homework): ожидалось false — префикс без разделителя")
	}
	if UnderRoot("/Home/../Etc") {
		t.Error("UnderRoot(/Home/../Etc): ожидалось false после нормализации")
	}
}
