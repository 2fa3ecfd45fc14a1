// Package scanner walks a project directory, skips ignored paths,
// and hashes every indexable file into a deterministic ProjectManifest
// (C3: ProjectScanner).
package scanner

import "time"

// ContentType represents the type of content in a file.
type ContentType string

const (
	ContentTypeCode     ContentType = "code"
	ContentTypeMarkdown ContentType = "markdown"
	ContentTypeText     ContentType = "text"
	ContentTypeConfig   ContentType = "config"
)

// FileInfo contains metadata about a discovered file, in addition to
// the content hash recorded in the manifest.
type FileInfo struct {
	Path        string
	AbsPath     string
	Size        int64
	ModTime     time.Time
	SHA256      string
	ContentType ContentType
	Language    string
}

// ScanOptions configures a single scan.
type ScanOptions struct {
	RootDir            string
	IgnoreDirs         []string
	ExtensionAllowlist []string
	RespectGitignore   bool
	MaxFileSize        int64
}

// DefaultMaxFileSize is the default maximum file size considered for
// hashing (10MB); larger files are skipped rather than erroring.
const DefaultMaxFileSize = 10 * 1024 * 1024

var languageMap = map[string]string{
	".go": "go", ".js": "javascript", ".jsx": "javascript", ".mjs": "javascript",
	".ts": "typescript", ".tsx": "typescript",
	".py": "python", ".pyw": "python", ".pyi": "python",
	".html": "html", ".htm": "html", ".css": "css", ".scss": "scss",
	".json": "json", ".yaml": "yaml", ".yml": "yaml", ".toml": "toml", ".xml": "xml",
	".md": "markdown", ".mdx": "markdown", ".markdown": "markdown", ".rst": "rst", ".txt": "text",
	".sh": "shell", ".bash": "shell", ".zsh": "shell",
	".rb": "ruby", ".rs": "rust", ".java": "java", ".kt": "kotlin",
	".c": "c", ".h": "c", ".cpp": "cpp", ".hpp": "cpp", ".cc": "cpp",
	".cs": "csharp", ".swift": "swift", ".php": "php", ".scala": "scala",
	".sql": "sql", ".proto": "protobuf",
	"Dockerfile": "dockerfile", "Makefile": "makefile", "GNUmakefile": "makefile",
}

var contentTypeMap = map[string]ContentType{
	"go": ContentTypeCode, "javascript": ContentTypeCode, "typescript": ContentTypeCode,
	"python": ContentTypeCode, "ruby": ContentTypeCode, "rust": ContentTypeCode,
	"java": ContentTypeCode, "kotlin": ContentTypeCode, "c": ContentTypeCode,
	"cpp": ContentTypeCode, "csharp": ContentTypeCode, "swift": ContentTypeCode,
	"php": ContentTypeCode, "scala": ContentTypeCode, "sql": ContentTypeCode,
	"shell": ContentTypeCode, "protobuf": ContentTypeCode, "html": ContentTypeCode,
	"css": ContentTypeCode, "scss": ContentTypeCode,
	"markdown": ContentTypeMarkdown, "rst": ContentTypeMarkdown,
	"text":       ContentTypeText,
	"json":       ContentTypeConfig,
	"yaml":       ContentTypeConfig,
	"toml":       ContentTypeConfig,
	"xml":        ContentTypeConfig,
	"dockerfile": ContentTypeConfig,
	"makefile":   ContentTypeConfig,
}

// DetectLanguage detects the programming language from a file path.
func DetectLanguage(path string) string {
	base := baseName(path)
	if lang, ok := languageMap[base]; ok {
		return lang
	}
	if lang, ok := languageMap[extension(path)]; ok {
		return lang
	}
	return ""
}

// DetectContentType detects the content type from a language.
func DetectContentType(language string) ContentType {
	if ct, ok := contentTypeMap[language]; ok {
		return ct
	}
	return ContentTypeText
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

func extension(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return ""
}
