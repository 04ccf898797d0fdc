package routes

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	apidocs "github.com/saeid-a/GymDashBack/docs"
	"github.com/saeid-a/GymDashBack/internal/config"
	"gopkg.in/yaml.v3"
)

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    :root {
      color-scheme: light;
      --bg: #f6f7f4;
      --panel: #ffffff;
      --text: #132019;
      --muted: #536258;
      --accent: #1f6f4a;
      --border: #d8ddd6;
      --code-bg: #0f172a;
      --code-text: #e2e8f0;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: Georgia, "Times New Roman", serif;
      color: var(--text);
      background:
        radial-gradient(circle at top left, rgba(31, 111, 74, 0.12), transparent 30%),
        linear-gradient(180deg, #fcfcfa 0%, var(--bg) 100%);
    }
    main {
      max-width: 1120px;
      margin: 0 auto;
      padding: 48px 20px 64px;
    }
    .hero, .panel {
      background: rgba(255, 255, 255, 0.92);
      border: 1px solid var(--border);
      border-radius: 18px;
      box-shadow: 0 20px 60px rgba(19, 32, 25, 0.08);
      backdrop-filter: blur(8px);
    }
    .hero {
      padding: 28px;
      margin-bottom: 20px;
    }
    .hero h1 {
      margin: 0 0 12px;
      font-size: clamp(2rem, 5vw, 3.5rem);
      line-height: 0.96;
    }
    .hero p {
      margin: 0;
      max-width: 48rem;
      color: var(--muted);
      font-size: 1rem;
      line-height: 1.6;
    }
    .actions {
      display: flex;
      flex-wrap: wrap;
      gap: 12px;
      margin-top: 20px;
    }
    .button {
      display: inline-flex;
      align-items: center;
      justify-content: center;
      padding: 11px 16px;
      border-radius: 999px;
      border: 1px solid var(--accent);
      color: #fff;
      background: var(--accent);
      text-decoration: none;
      font-weight: 600;
    }
    .button.secondary {
      background: transparent;
      color: var(--accent);
    }
    table {
      width: 100%;
      border-collapse: collapse;
      font-size: 0.95rem;
    }
    th, td {
      text-align: left;
      padding: 8px 10px;
      border-bottom: 1px solid var(--border);
    }
    td.method {
      font-family: monospace;
      font-weight: 700;
      color: var(--accent);
      text-transform: uppercase;
    }
    .meta {
      display: grid;
      gap: 12px;
      margin: 20px 0;
      grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
    }
    .panel {
      padding: 24px;
    }
    .meta strong, .panel h2 {
      display: block;
      margin-bottom: 6px;
      font-size: 0.92rem;
      text-transform: uppercase;
      letter-spacing: 0.08em;
      color: var(--muted);
    }
    .meta span {
      font-size: 1rem;
    }
    pre {
      margin: 0;
      padding: 20px;
      overflow: auto;
      border-radius: 14px;
      background: var(--code-bg);
      color: var(--code-text);
      font-size: 0.92rem;
      line-height: 1.5;
    }
  </style>
</head>
<body>
  <main>
    <section class="hero">
      <h1>{{ .Title }}</h1>
      <p>{{ .Summary }}</p>
      <div class="actions">
        <a class="button" href="/docs/openapi.yaml">Open Raw Spec</a>
        <a class="button secondary" href="/docs/openapi.yaml" download="openapi.yaml">Download YAML</a>
      </div>
    </section>
    <section class="meta">
      <div class="panel">
        <strong>Version</strong>
        <span>{{ .Version }}</span>
      </div>
      <div class="panel">
        <strong>Operations</strong>
        <span>{{ len .Operations }}</span>
      </div>
      <div class="panel">
        <strong>Last Loaded</strong>
        <span>{{ .LoadedAt }}</span>
      </div>
    </section>
    <section class="panel">
      <h2>Endpoints</h2>
      <table>
        <thead><tr><th>Method</th><th>Path</th><th>Tag</th></tr></thead>
        <tbody>
        {{- range .Operations }}
          <tr><td class="method">{{ .Method }}</td><td><code>{{ .Path }}</code></td><td>{{ .Tag }}</td></tr>
        {{- end }}
        </tbody>
      </table>
    </section>
    <section class="panel">
      <h2>OpenAPI YAML</h2>
      <pre>{{ .Spec }}</pre>
    </section>
  </main>
</body>
</html>
`

var httpMethods = map[string]struct{}{
	"get": {}, "post": {}, "put": {}, "patch": {}, "delete": {},
}

type docsOperation struct {
	Method string
	Path   string
	Tag    string
}

type docsPageData struct {
	Title      string
	Summary    string
	Version    string
	LoadedAt   string
	Operations []docsOperation
	Spec       string
}

type openAPIDocument struct {
	Info struct {
		Title       string `yaml:"title"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"info"`
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	spec := apidocs.OpenAPI
	pageData, err := buildDocsPage(spec)
	if err != nil {
		return fmt.Errorf("load openapi spec: %w", err)
	}

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return fmt.Errorf("parse docs template: %w", err)
	}

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		if err := indexTemplate.Execute(&body, pageData); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}

		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Status(fiber.StatusOK).Send(spec)
	})

	return nil
}

// buildDocsPage decodes the spec and lists its operations sorted by path.
func buildDocsPage(spec []byte) (docsPageData, error) {
	var document openAPIDocument
	if err := yaml.Unmarshal(spec, &document); err != nil {
		return docsPageData{}, err
	}
	if len(document.Paths) == 0 {
		return docsPageData{}, fmt.Errorf("openapi spec has no paths")
	}

	operations := make([]docsOperation, 0, len(document.Paths)*2)
	for path, item := range document.Paths {
		for method, node := range item {
			if _, ok := httpMethods[method]; !ok {
				continue
			}
			var operation struct {
				Tags []string `yaml:"tags"`
			}
			if err := node.Decode(&operation); err != nil {
				return docsPageData{}, fmt.Errorf("decode %s %s: %w", method, path, err)
			}
			tag := ""
			if len(operation.Tags) > 0 {
				tag = operation.Tags[0]
			}
			operations = append(operations, docsOperation{Method: method, Path: path, Tag: tag})
		}
	}
	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Path != operations[j].Path {
			return operations[i].Path < operations[j].Path
		}
		return operations[i].Method < operations[j].Method
	})

	summary := strings.TrimSpace(document.Info.Description)
	if summary == "" {
		summary = "The OpenAPI spec is served from the same origin at /docs/openapi.yaml."
	}
	return docsPageData{
		Title:      document.Info.Title + " Docs",
		Summary:    summary,
		Version:    document.Info.Version,
		LoadedAt:   time.Now().UTC().Format(time.RFC3339),
		Operations: operations,
		Spec:       string(spec),
	}, nil
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("Cross-Origin-Resource-Policy", "same-origin")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
