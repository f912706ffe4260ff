package platform

import (
	"errors"
	"reflect"
	"testing"

	"github.com/flutterfly/devbridge/pkg/domain"
)

func TestCandidateDirs(t *testing.T) {
	tests := []struct {
		name   string
		family Family
		home   string
		env    map[string]string
		want   []string
	}{
		{
			name:   "windows with program files set",
			family: Windows,
			home:   `C:\Users\dev`,
			env: map[string]string{
				"ProgramFiles":      `D:\Apps`,
				"ProgramFiles(x86)": `D:\Apps32`,
			},
			want: []string{
				`C:\Users\dev\AppData\Local\Android\Sdk\platform-tools`,
				`C:\Users\dev\AppData\Local\Android\Sdk`,
				`C:\Android\platform-tools`,
				`C:\Android\Sdk\platform-tools`,
				`D:\Apps\Android\platform-tools`,
				`D:\Apps32\Android\platform-tools`,
			},
		},
		{
			name:   "windows falls back to literal program files",
			family: Windows,
			home:   `C:\Users\dev`,
			want: []string{
				`C:\Users\dev\AppData\Local\Android\Sdk\platform-tools`,
				`C:\Users\dev\AppData\Local\Android\Sdk`,
				`C:\Android\platform-tools`,
				`C:\Android\Sdk\platform-tools`,
				`C:\Program Files\Android\platform-tools`,
				`C:\Program Files (x86)\Android\platform-tools`,
			},
		},
		{
			name:   "macos",
			family: MacOS,
			home:   "/Users/dev",
			want: []string{
				"/Users/dev/Library/Android/sdk/platform-tools",
				"/Users/dev/Library/Android/sdk",
				"/opt/homebrew/opt/android-platform-tools",
				"/usr/local/opt/android-platform-tools",
				"/Applications/Android Studio.app/Contents/jre/Contents/Home",
			},
		},
		{
			name:   "linux",
			family: Linux,
			home:   "/home/dev",
			want: []string{
				"/home/dev/Android/Sdk/platform-tools",
				"/home/dev/Android/Sdk",
				"/opt/android-sdk/platform-tools",
				"/usr/lib/android-sdk/platform-tools",
				"/usr/local/android-sdk/platform-tools",
				"/home/dev/.local/share/Android/Sdk/platform-tools",
			},
		},
		{
			name:   "linux home with trailing slash",
			family: Linux,
			home:   "/home/dev/",
			want: []string{
				"/home/dev/Android/Sdk/platform-tools",
				"/home/dev/Android/Sdk",
				"/opt/android-sdk/platform-tools",
				"/usr/lib/android-sdk/platform-tools",
				"/usr/local/android-sdk/platform-tools",
				"/home/dev/.local/share/Android/Sdk/platform-tools",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			}
			got, err := CandidateDirs(tt.family, tt.home, env)
			if err != nil {
				t.Fatalf("CandidateDirs() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CandidateDirs() =\n%v\nwant\n%v", got, tt.want)
			}

			// Order must be stable across calls
			again, _ := CandidateDirs(tt.family, tt.home, env)
			if !reflect.DeepEqual(got, again) {
				t.Errorf("CandidateDirs() not stable: %v vs %v", got, again)
			}
		})
	}
}

func TestCandidateDirsUnsupported(t *testing.T) {
	for _, family := range []Family{"", "plan9", "Solaris"} {
		got, err := CandidateDirs(family, "/home/dev", nil)
		if got != nil {
			t.Errorf("CandidateDirs(%q) returned partial list %v", family, got)
		}
		if !errors.Is(err, domain.ErrUnsupportedPlatform) {
			t.Errorf("CandidateDirs(%q) error = %v, want UnsupportedPlatform", family, err)
		}
	}
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		input   string
		want    Family
		wantErr bool
	}{
		{"windows", Windows, false},
		{"Windows_NT", Windows, false},
		{"darwin", MacOS, false},
		{"Darwin", MacOS, false},
		{"linux", Linux, false},
		{"Linux", Linux, false},
		{"freebsd", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFamily(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFamily(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFamily(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultSDKDir(t *testing.T) {
	got, err := DefaultSDKDir(Linux, "/home/dev")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/dev/Android/Sdk/platform-tools" {
		t.Errorf("DefaultSDKDir() = %q", got)
	}

	if _, err := DefaultSDKDir("beos", "/home/dev"); !errors.Is(err, domain.ErrUnsupportedPlatform) {
		t.Errorf("DefaultSDKDir(beos) error = %v", err)
	}
}

func TestExecutableName(t *testing.T) {
	if got := ExecutableName(Windows, "adb"); got != "adb.exe" {
		t.Errorf("ExecutableName(Windows) = %q", got)
	}
	if got := ExecutableName(Windows, "adb.EXE"); got != "adb.EXE" {
		t.Errorf("ExecutableName(Windows, adb.EXE) = %q", got)
	}
	if got := ExecutableName(Linux, "adb"); got != "adb" {
		t.Errorf("ExecutableName(Linux) = %q", got)
	}
}
