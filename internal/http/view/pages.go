package view

import (
	"bytes"
	"html/template"
)

// PageData provides the dynamic fields shared by the client pages.
type PageData struct {
	Title string
	// APIBase is prepended to API paths by the page scripts. Empty means
	// same origin.
	APIBase string
}

const pageHead = `
{{define "head"}}
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}</title>
	<style>
		:root {
			--bg: #111827;
			--card: #1f2937;
			--text: #f9fafb;
			--muted: #9ca3af;
			--accent: #34d399;
			--danger: #dc2626;
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: var(--bg);
			color: var(--text);
		}
		.card {
			background: var(--card);
			border-radius: 12px;
			padding: 32px;
			width: min(520px, 92vw);
			text-align: center;
		}
		h1 { color: var(--accent); }
		input, button {
			width: 100%;
			padding: 12px;
			border-radius: 6px;
			border: none;
			font-size: 1rem;
			margin-top: 12px;
		}
		button { background: var(--accent); font-weight: 600; cursor: pointer; }
		button:disabled { background: var(--muted); }
		.error { margin-top: 20px; padding: 12px; border-radius: 6px; background: var(--danger); }
		.result { margin-top: 20px; padding: 12px; border-radius: 6px; background: #374151; word-break: break-all; }
		.result a { color: var(--accent); }
		[hidden] { display: none; }
	</style>
</head>
{{end}}`

var indexPageTmpl = template.Must(template.Must(template.New("index_page").Parse(pageHead)).Parse(`
{{template "head" .}}
<body>
	<div class="card">
		<h1>URL Shortener</h1>
		<p>Enter a long URL to get a short one.</p>

		<form id="shorten-form">
			<input id="long-url" type="url" required placeholder="e.g., https://www.example.com/a-very-long-url" />
			<button id="submit" type="submit">Shorten URL</button>
		</form>

		<div id="error" class="error" hidden></div>
		<div id="result" class="result" hidden>
			<div>Your shortened URL:</div>
			<a id="short-url" target="_blank" rel="noopener noreferrer"></a>
		</div>
	</div>

	<script>
		(function() {
			const apiBase = {{.APIBase}};
			const form = document.getElementById("shorten-form");
			const input = document.getElementById("long-url");
			const button = document.getElementById("submit");
			const errorBox = document.getElementById("error");
			const result = document.getElementById("result");
			const link = document.getElementById("short-url");

			const setLoading = (loading) => {
				button.disabled = loading;
				button.textContent = loading ? "Shortening..." : "Shorten URL";
			};

			form.addEventListener("submit", async (event) => {
				event.preventDefault();
				setLoading(true);
				errorBox.hidden = true;
				errorBox.textContent = "";
				result.hidden = true;

				try {
					const response = await fetch(apiBase + "/api/shorten", {
						method: "POST",
						headers: { "Content-Type": "application/json" },
						body: JSON.stringify({ longUrl: input.value }),
					});
					const data = await response.json();
					if (!response.ok) {
						throw new Error(data.error || "Failed to shorten URL.");
					}
					link.href = data.shortUrl;
					link.textContent = data.shortUrl;
					result.hidden = false;
				} catch (e) {
					errorBox.textContent = e.message;
					errorBox.hidden = false;
				} finally {
					setLoading(false);
				}
			});
		})();
	</script>
</body>
</html>
`))

var statusPageTmpl = template.Must(template.Must(template.New("status_page").Parse(pageHead)).Parse(`
{{template "head" .}}
<body>
	<div class="card">
		<h1>System Status</h1>
		<div id="status" class="result">Checking...</div>
		<p id="error" hidden></p>
	</div>

	<script>
		(async function() {
			const apiBase = {{.APIBase}};
			const status = document.getElementById("status");
			const errorLine = document.getElementById("error");
			try {
				const response = await fetch(apiBase + "/health");
				if (!response.ok) {
					throw new Error("Status: " + response.status);
				}
				const text = await response.text();
				status.textContent = text.trim().toUpperCase() === "OK"
					? "Healthy - " + text
					: "Unhealthy - " + text;
			} catch (err) {
				status.textContent = "Unhealthy";
				errorLine.textContent = "Error: " + err.message;
				errorLine.hidden = false;
			}
		})();
	</script>
</body>
</html>
`))

// RenderIndexPage expands the shorten form page.
func RenderIndexPage(data PageData) (string, error) {
	if data.Title == "" {
		data.Title = "URL Shortener"
	}
	return render(indexPageTmpl, data)
}

// RenderStatusPage expands the status page.
func RenderStatusPage(data PageData) (string, error) {
	if data.Title == "" {
		data.Title = "System Status"
	}
	return render(statusPageTmpl, data)
}

func render(tmpl *template.Template, data PageData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
