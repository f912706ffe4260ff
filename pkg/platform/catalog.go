package platform

import (
	"runtime"
	"strings"

	"github.com/flutterfly/devbridge/pkg/domain"
)

// Family is an operating system family with a known SDK layout
type Family string

const (
	Windows Family = "windows"
	MacOS   Family = "darwin"
	Linux   Family = "linux"
)

// EnvLookup reads an environment variable; os.LookupEnv satisfies it
type EnvLookup func(key string) (string, bool)

// Current returns the family of the running binary
func Current() Family {
	return Family(runtime.GOOS)
}

// ParseFamily accepts GOOS names and the names reported by os.type()
// (Windows_NT, Darwin, Linux)
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows", "windows_nt", "win32":
		return Windows, nil
	case "darwin", "macos", "mac":
		return MacOS, nil
	case "linux":
		return Linux, nil
	default:
		return "", domain.NewUnsupportedPlatform(name)
	}
}

// CandidateDirs returns the directories likely to hold the adb binary, most likely
// first. It never touches the filesystem; env is only consulted for the Windows
// Program Files locations and may be nil.
func CandidateDirs(family Family, home string, env EnvLookup) ([]string, error) {
	switch family {
	case Windows:
		programFiles := lookupOr(env, "ProgramFiles", `C:\Program Files`)
		programFilesX86 := lookupOr(env, "ProgramFiles(x86)", `C:\Program Files (x86)`)
		return []string{
			winJoin(home, "AppData", "Local", "Android", "Sdk", "platform-tools"),
			winJoin(home, "AppData", "Local", "Android", "Sdk"),
			`C:\Android\platform-tools`,
			`C:\Android\Sdk\platform-tools`,
			winJoin(programFiles, "Android", "platform-tools"),
			winJoin(programFilesX86, "Android", "platform-tools"),
		}, nil
	case MacOS:
		return []string{
			posixJoin(home, "Library", "Android", "sdk", "platform-tools"),
			posixJoin(home, "Library", "Android", "sdk"),
			"/opt/homebrew/opt/android-platform-tools",
			"/usr/local/opt/android-platform-tools",
			"/Applications/Android Studio.app/Contents/jre/Contents/Home",
		}, nil
	case Linux:
		return []string{
			posixJoin(home, "Android", "Sdk", "platform-tools"),
			posixJoin(home, "Android", "Sdk"),
			"/opt/android-sdk/platform-tools",
			"/usr/lib/android-sdk/platform-tools",
			"/usr/local/android-sdk/platform-tools",
			posixJoin(home, ".local", "share", "Android", "Sdk", "platform-tools"),
		}, nil
	default:
		return nil, domain.NewUnsupportedPlatform(string(family))
	}
}

// DefaultSDKDir returns the default platform-tools directory of the SDK installer,
// which is the first catalog entry
func DefaultSDKDir(family Family, home string) (string, error) {
	dirs, err := CandidateDirs(family, home, nil)
	if err != nil {
		return "", err
	}
	return dirs[0], nil
}

// ExecutableName returns tool with the platform executable suffix
func ExecutableName(family Family, tool string) string {
	if family == Windows && !strings.HasSuffix(strings.ToLower(tool), ".exe") {
		return tool + ".exe"
	}
	return tool
}

func lookupOr(env EnvLookup, key, fallback string) string {
	if env == nil {
		return fallback
	}
	if v, ok := env(key); ok && v != "" {
		return v
	}
	return fallback
}

func winJoin(parts ...string) string {
	return joinWith(`\`, parts)
}

func posixJoin(parts ...string) string {
	return joinWith("/", parts)
}

func joinWith(sep string, parts []string) string {
	cleaned := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = strings.TrimLeft(p, `/\`)
		}
		if i < len(parts)-1 {
			p = strings.TrimRight(p, `/\`)
		}
		if p == "" && i > 0 {
			continue
		}
		cleaned = append(cleaned, p)
	}
	return strings.Join(cleaned, sep)
}
