package piston

import "testing"

func TestRuntimeFor(t *testing.T) {
	tests := []struct {
		language string
		wantID   string
		wantVer  string
		wantFile string
		wantOK   bool
	}{
		{"python", "python3", "3.10.0", "main.py", true},
		{"javascript", "node", "18.15.0", "main.js", true},
		{"cpp", "cpp", "10.2.0", "main.cpp", true},
		{"csharp", "csharp", "6.12.0", "main.cs", true},
		{"kotlin", "kotlin", "1.8.0", "main.kt", true},
		{"verilog", "iverilog", "11.0.0", "main.v", true},
		{"cobol", "", "", "", false},
		{"", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			rt, ok := RuntimeFor(tt.language)
			if ok != tt.wantOK {
				t.Fatalf("RuntimeFor(%q) ok = %v; want %v", tt.language, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if rt.ID != tt.wantID {
				t.Errorf("ID = %q; want %q", rt.ID, tt.wantID)
			}
			if rt.Version != tt.wantVer {
				t.Errorf("Version = %q; want %q", rt.Version, tt.wantVer)
			}
			if rt.FileName() != tt.wantFile {
				t.Errorf("FileName() = %q; want %q", rt.FileName(), tt.wantFile)
			}
		})
	}
}

func TestFileExtension(t *testing.T) {
	if got := FileExtension("rust"); got != "rs" {
		t.Errorf("FileExtension(rust) = %q; want rs", got)
	}
	if got := FileExtension("brainfuck"); got != "txt" {
		t.Errorf("FileExtension(brainfuck) = %q; want txt", got)
	}
}

func TestRuntimeVersion(t *testing.T) {
	if got := RuntimeVersion("go"); got != "1.16.2" {
		t.Errorf("RuntimeVersion(go) = %q; want 1.16.2", got)
	}
	if got := RuntimeVersion("unknown"); got != "" {
		t.Errorf("RuntimeVersion(unknown) = %q; want empty", got)
	}
}

func TestSupportedLanguages(t *testing.T) {
	langs := SupportedLanguages()
	if len(langs) != 13 {
		t.Fatalf("len(SupportedLanguages()) = %d; want 13", len(langs))
	}

	first := langs[0]
	if first.Value != "python" || first.Label != "Python" || first.Runtime != "python3" || first.Extension != "py" {
		t.Errorf("first language = %+v", first)
	}

	last := langs[len(langs)-1]
	if last.Value != "verilog" || last.Label != "Verilog" || last.Runtime != "iverilog" {
		t.Errorf("last language = %+v", last)
	}
}

func TestUnsupportedLanguageError(t *testing.T) {
	err := &UnsupportedLanguageError{Language: "cobol"}
	want := "Unsupported language: cobol. Supported languages: python, javascript, typescript, cpp, java, csharp, go, rust, ruby, swift, kotlin, php, verilog"
	if err.Error() != want {
		t.Errorf("Error() = %q; want %q", err.Error(), want)
	}
}
