package web

import (
	"bytes"
	"html/template"
)

// IndexPageData carries the values interpolated into the start page.
type IndexPageData struct {
	Title string
}

// IndexHTML renders the start page: the index trigger, the question form,
// and the controller script that drives both against the API.
func IndexHTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := indexPageTmpl.Execute(&buf, IndexPageData{Title: "Dokufrage"}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var indexPageTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="de">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.Title}}</title>
    <style>
      :root {
        --bg: #f6f7fb;
        --panel: #ffffff;
        --text: #1d2430;
        --muted: #6b7486;
        --border: #dde1ea;
        --accent: #2563eb;
        --good: #15803d;
        --bad: #b91c1c;
      }
      * { box-sizing: border-box; }
      body {
        margin: 0;
        font-family: system-ui, -apple-system, "Segoe UI", Roboto, sans-serif;
        color: var(--text);
        background: var(--bg);
      }
      .wrap { max-width: 760px; margin: 0 auto; padding: 32px 20px; }
      .panel {
        background: var(--panel);
        border: 1px solid var(--border);
        border-radius: 10px;
        padding: 20px;
        margin-bottom: 20px;
      }
      h1 { margin: 0 0 24px; font-size: 1.5rem; }
      h2 { margin: 0 0 12px; font-size: 1.1rem; }
      button {
        background: var(--accent);
        color: #fff;
        border: none;
        border-radius: 8px;
        padding: 10px 18px;
        font-size: 0.95rem;
        cursor: pointer;
      }
      button:disabled { opacity: 0.55; cursor: wait; }
      input[type="text"] {
        width: 100%;
        padding: 10px 12px;
        border: 1px solid var(--border);
        border-radius: 8px;
        font-size: 0.95rem;
        margin-bottom: 12px;
      }
      .status { margin-top: 12px; font-size: 0.9rem; color: var(--muted); }
      .status.ok { color: var(--good); }
      .status.error { color: var(--bad); }
      #loadingIndicator { display: none; margin-top: 12px; color: var(--muted); }
      #answerSection { display: none; }
      #answerContent { white-space: pre-wrap; }
      #sourcesList { color: var(--muted); font-size: 0.9rem; }
    </style>
  </head>
  <body>
    <div class="wrap">
      <h1>{{.Title}} &mdash; Fragen an Ihre Dokumente</h1>

      <div class="panel">
        <h2>Dokumente indexieren</h2>
        <button id="indexButton" type="button">Dokumente neu indexieren</button>
        <div id="indexStatus" class="status"></div>
      </div>

      <div class="panel">
        <h2>Frage stellen</h2>
        <form id="questionForm">
          <input id="question" type="text" name="question" placeholder="Ihre Frage zu den Dokumenten..." autocomplete="off" />
          <button type="submit">Frage senden</button>
        </form>
        <div id="loadingIndicator">Antwort wird generiert&hellip;</div>
      </div>

      <div id="answerSection" class="panel">
        <h2>Antwort</h2>
        <p id="answerContent"></p>
        <h2>Quellen</h2>
        <ul id="sourcesList"></ul>
      </div>
    </div>

    <script>
      (function () {
        var indexButton = document.getElementById("indexButton");
        var indexStatus = document.getElementById("indexStatus");
        var questionForm = document.getElementById("questionForm");
        var questionInput = document.getElementById("question");
        var loadingIndicator = document.getElementById("loadingIndicator");
        var answerSection = document.getElementById("answerSection");
        var answerContent = document.getElementById("answerContent");
        var sourcesList = document.getElementById("sourcesList");

        indexButton.addEventListener("click", function () {
          indexButton.disabled = true;
          indexStatus.className = "status";
          indexStatus.textContent = "Indexierung läuft, bitte warten...";

          fetch("/api/index-documents", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
          })
            .then(function (res) { return res.json(); })
            .then(function (data) {
              indexStatus.className = data.success ? "status ok" : "status error";
              indexStatus.textContent = data.message;
            })
            .catch(function (err) {
              console.error("Fehler beim Indexieren:", err);
              indexStatus.className = "status error";
              indexStatus.textContent = "Fehler beim Indexieren: " + err;
            })
            .finally(function () {
              indexButton.disabled = false;
            });
        });

        // Only the newest question may determine the rendered answer; a
        // response carrying a stale token is dropped.
        var askToken = 0;

        questionForm.addEventListener("submit", function (event) {
          event.preventDefault();

          var question = questionInput.value.trim();
          if (!question) {
            alert("Bitte geben Sie eine Frage ein.");
            return;
          }

          var token = ++askToken;
          loadingIndicator.style.display = "block";
          answerSection.style.display = "none";

          fetch("/api/ask", {
            method: "POST",
            headers: { "Content-Type": "application/json" },
            body: JSON.stringify({ question: question }),
          })
            .then(function (res) { return res.json(); })
            .then(function (data) {
              if (token !== askToken) return;
              if (!data.success) {
                alert(data.message);
                return;
              }
              answerContent.textContent = data.answer;
              sourcesList.textContent = "";
              var sources = data.sources || [];
              if (sources.length === 0) {
                var li = document.createElement("li");
                li.textContent = "Keine spezifischen Quellen gefunden";
                sourcesList.appendChild(li);
              } else {
                sources.forEach(function (source) {
                  var li = document.createElement("li");
                  li.textContent =
                    source.filename +
                    " (Relevanz: " +
                    (source.score * 100).toFixed(1) +
                    "%)";
                  sourcesList.appendChild(li);
                });
              }
              answerSection.style.display = "block";
            })
            .catch(function (err) {
              console.error("Fehler bei der Beantwortung:", err);
              if (token !== askToken) return;
              alert("Fehler bei der Beantwortung: " + err);
            })
            .finally(function () {
              if (token === askToken) {
                loadingIndicator.style.display = "none";
              }
            });
        });
      })();
    </script>
  </body>
</html>
`))
