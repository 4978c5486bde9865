package http

import nethttp "net/http"

func dashboardHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(dashboardHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Carbon Registry UI</title>
  <style>
    :root {
      --reg-green: #2d5d3f;
      --reg-green-2: #3c7a54;
      --bg: #f7f7f5;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --line-soft: #eee;
      --head: #f0f2ef;
      --ok-bg: #dff0d8;
      --ok-text: #3c763d;
      --bad-bg: #f2dede;
      --bad-text: #a94442;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.42857143;
    }

    a { color: #2f7a50; text-decoration: none; }
    a:hover { text-decoration: underline; }

    header {
      background: linear-gradient(to right, var(--reg-green) 0, var(--reg-green-2) 100%);
      border-bottom: 1px solid #24492f;
      box-shadow: 0 2px 5px rgba(0, 0, 0, 0.15);
    }

    .container {
      margin-right: auto;
      margin-left: auto;
      padding-left: 15px;
      padding-right: 15px;
      width: 100%;
      max-width: 1480px;
    }

    .header-inner {
      min-height: 64px;
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
    }

    .navbar-brand {
      color: #fff;
      font-size: 21px;
      font-weight: 300;
      letter-spacing: 0.2px;
    }

    .navbar-brand strong { font-weight: 600; }

    .navbar-note {
      color: rgba(255, 255, 255, 0.88);
      font-size: 13px;
      font-weight: 300;
      text-align: right;
    }

    main { padding: 18px 0 32px; }

    .tabs {
      display: flex;
      gap: 8px;
      margin-bottom: 14px;
      border-bottom: 1px solid var(--line);
      padding-bottom: 8px;
    }

    .tab-btn {
      border: 1px solid #cfe0d2;
      background: #fff;
      color: #2f5a41;
      border-radius: 4px;
      padding: 7px 12px;
      font-size: 13px;
      cursor: pointer;
    }

    .tab-btn:hover { background: #eef6ef; }
    .tab-btn.active { background: var(--reg-green); border-color: var(--reg-green); color: #fff; }

    .tab-pane { display: none; }
    .tab-pane.active { display: block; }

    .panel {
      background: var(--paper);
      border: 1px solid var(--line);
      border-radius: 4px;
      margin-bottom: 16px;
    }

    .panel-heading {
      background: var(--head);
      border-bottom: 1px solid var(--line);
      padding: 10px 14px;
    }

    .panel-heading h3 { margin: 0; font-size: 15px; font-weight: 600; }
    .panel-body { padding: 14px; }

    .filter-row {
      display: flex;
      flex-wrap: wrap;
      gap: 10px;
      align-items: end;
      margin-bottom: 12px;
    }

    .filter-row label { font-size: 12px; color: var(--muted); display: block; }

    .filter-row input, .filter-row select {
      border: 1px solid var(--line);
      border-radius: 4px;
      padding: 7px 9px;
      font-size: 13px;
      margin-top: 3px;
    }

    #credit-search { min-width: 320px; }

    table { width: 100%; border-collapse: collapse; }
    thead th {
      background: var(--head);
      border-bottom: 2px solid var(--line);
      text-align: left;
      padding: 8px 10px;
      font-size: 12px;
      text-transform: uppercase;
      letter-spacing: 0.4px;
      color: #555;
    }
    tbody td { padding: 8px 10px; border-bottom: 1px solid var(--line-soft); }
    tbody tr:hover { background: #fbfdf9; }

    .badge {
      display: inline-block;
      border-radius: 10px;
      font-size: 11px;
      font-weight: 600;
      padding: 2px 10px;
    }
    .badge-active { background: var(--ok-bg); color: var(--ok-text); }
    .badge-retired { background: var(--bad-bg); color: var(--bad-text); }

    .hint { color: var(--muted); font-size: 12px; }
    .mono { font-family: Menlo, Consolas, monospace; font-size: 12px; }

    .facet-chips { display: flex; flex-wrap: wrap; gap: 8px; margin-bottom: 10px; }
    .chip {
      background: #eef3ee;
      border: 1px solid #d8e4d8;
      border-radius: 12px;
      padding: 3px 12px;
      font-size: 12px;
      color: #3a5a44;
    }

    .row-actions button {
      border: 1px solid #cfe0d2;
      background: #fff;
      border-radius: 3px;
      padding: 3px 8px;
      font-size: 11px;
      cursor: pointer;
      color: #2f5a41;
    }
    .row-actions button:hover { background: #eef6ef; }

    pre {
      background: #222;
      color: #ddd;
      border-radius: 4px;
      padding: 12px;
      font-size: 12px;
      overflow: auto;
      max-height: 320px;
    }

    .flash { font-weight: 600; font-size: 12px; }
    .flash.ok { color: var(--ok-text); }
    .flash.bad { color: var(--bad-text); }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="navbar-brand"><strong>Carbon Registry</strong> Certificate Dashboard</div>
      <div class="navbar-note" id="header-note">Loading catalogue...</div>
    </div>
  </header>

  <main>
    <div class="container">
      <div class="tabs">
        <button class="tab-btn active" data-tab="tab-credits" type="button">Credits</button>
        <button class="tab-btn" data-tab="tab-certificates" type="button">Issued Certificates</button>
        <button class="tab-btn" data-tab="tab-views" type="button">Saved Views</button>
        <button class="tab-btn" data-tab="tab-services" type="button">Services</button>
      </div>

      <section id="tab-credits" class="tab-pane active">
        <article class="panel">
          <div class="panel-heading"><h3>Browse Credits</h3></div>
          <div class="panel-body">
            <div class="facet-chips" id="facet-chips"><span class="chip">Loading facets...</span></div>
            <div class="filter-row">
              <label>Search<br /><input id="credit-search" type="text" placeholder="id, project, vintage or status" /></label>
              <label>Status<br />
                <select id="filter-status">
                  <option value="">All</option>
                  <option value="Active">Active</option>
                  <option value="Retired">Retired</option>
                </select>
              </label>
              <label>Vintage from<br /><input id="filter-vintage-from" type="number" min="1900" max="2200" style="width:100px" /></label>
              <label>Vintage to<br /><input id="filter-vintage-to" type="number" min="1900" max="2200" style="width:100px" /></label>
              <label>Sort<br />
                <select id="filter-sort">
                  <option value="id_asc">ID A-Z</option>
                  <option value="project_asc">Project A-Z</option>
                  <option value="project_desc">Project Z-A</option>
                  <option value="vintage_asc">Vintage oldest</option>
                  <option value="vintage_desc">Vintage newest</option>
                </select>
              </label>
              <button class="tab-btn" id="credits-export" type="button">Export CSV</button>
              <button class="tab-btn" id="view-save" type="button">Save View</button>
              <input id="view-name" type="text" placeholder="view name" style="min-width:160px" />
            </div>
            <div class="hint" id="credits-summary">Loading...</div>
            <table>
              <thead>
                <tr><th>Credit ID</th><th>Project</th><th>Vintage</th><th>Status</th><th>Certificate</th></tr>
              </thead>
              <tbody id="credits-body"><tr><td colspan="5">Loading...</td></tr></tbody>
            </table>
            <div style="margin-top:10px">
              <button class="tab-btn" id="credits-load-more" type="button">Load More</button>
              <span class="flash" id="credits-flash"></span>
            </div>
          </div>
        </article>
      </section>

      <section id="tab-certificates" class="tab-pane">
        <article class="panel">
          <div class="panel-heading"><h3>Issued Certificates</h3></div>
          <div class="panel-body">
            <div class="hint" id="certs-summary">Certificates generated by this service, newest first.</div>
            <table>
              <thead>
                <tr><th>Certificate ID</th><th>Credit ID</th><th>Project</th><th>Vintage</th><th>Status</th><th>Format</th><th>Issued</th></tr>
              </thead>
              <tbody id="certs-body"><tr><td colspan="7">Loading...</td></tr></tbody>
            </table>
          </div>
        </article>
      </section>

      <section id="tab-views" class="tab-pane">
        <article class="panel">
          <div class="panel-heading"><h3>Saved Views</h3></div>
          <div class="panel-body">
            <div class="hint">Saved filter configurations. Load one to apply it on the Credits tab.</div>
            <table>
              <thead>
                <tr><th>Name</th><th>Description</th><th>Config</th><th>Updated</th><th></th></tr>
              </thead>
              <tbody id="views-body"><tr><td colspan="5">Loading...</td></tr></tbody>
            </table>
          </div>
        </article>
      </section>

      <section id="tab-services" class="tab-pane">
        <article class="panel">
          <div class="panel-heading"><h3>Catalogue Source</h3></div>
          <div class="panel-body">
            <table>
              <tbody id="catalogue-status-body"><tr><td>Loading...</td></tr></tbody>
            </table>
            <div style="margin-top:10px">
              <button class="tab-btn" id="catalogue-reload" type="button">Reload Catalogue</button>
              <span class="flash" id="reload-flash"></span>
            </div>
          </div>
        </article>
        <article class="panel">
          <div class="panel-heading"><h3>Integrations</h3></div>
          <div class="panel-body">
            <pre id="services-json">Loading...</pre>
          </div>
        </article>
      </section>
    </div>
  </main>

  <script>
    (function () {
      "use strict";

      var state = {
        q: "",
        status: "",
        vintageFrom: "",
        vintageTo: "",
        sort: "id_asc",
        offset: 0,
        pageSize: 50,
        total: 0,
        rows: []
      };

      function el(id) { return document.getElementById(id); }

      function esc(s) {
        return String(s == null ? "" : s)
          .replace(/&/g, "&amp;").replace(/</g, "&lt;").replace(/>/g, "&gt;").replace(/"/g, "&quot;");
      }

      function debounce(fn, ms) {
        var timer = null;
        return function () {
          var args = arguments;
          if (timer) { clearTimeout(timer); }
          timer = setTimeout(function () { fn.apply(null, args); }, ms);
        };
      }

      function queryString(extra) {
        var params = new URLSearchParams();
        if (state.q) { params.set("q", state.q); }
        if (state.status) { params.set("status", state.status); }
        if (state.vintageFrom) { params.set("vintage_from", state.vintageFrom); }
        if (state.vintageTo) { params.set("vintage_to", state.vintageTo); }
        if (state.sort) { params.set("sort", state.sort); }
        if (extra) {
          Object.keys(extra).forEach(function (k) { params.set(k, extra[k]); });
        }
        return params.toString();
      }

      function statusBadge(status) {
        var cls = status === "Active" ? "badge-active" : "badge-retired";
        return '<span class="badge ' + cls + '">' + esc(status) + "</span>";
      }

      function renderRows() {
        var body = el("credits-body");
        if (state.rows.length === 0) {
          body.innerHTML = '<tr><td colspan="5">No credits match the current filters.</td></tr>';
          return;
        }
        var html = "";
        state.rows.forEach(function (row) {
          html += "<tr>" +
            '<td class="mono">' + esc(row.unic_id) + "</td>" +
            "<td>" + esc(row.project_name) + "</td>" +
            "<td>" + esc(row.vintage) + "</td>" +
            "<td>" + statusBadge(row.status) + "</td>" +
            '<td class="row-actions">' +
              '<button type="button" data-cert-id="' + esc(row.unic_id) + '" data-cert-format="html">HTML</button> ' +
              '<button type="button" data-cert-id="' + esc(row.unic_id) + '" data-cert-format="pdf">PDF</button>' +
            "</td>" +
          "</tr>";
        });
        body.innerHTML = html;
      }

      function renderSummary(meta) {
        el("credits-summary").textContent =
          "Showing " + state.rows.length + " of " + state.total + " matching credits" +
          (meta && meta.query_ms != null ? " (query " + meta.query_ms.toFixed(2) + " ms)" : "");
        el("credits-load-more").style.display = state.rows.length < state.total ? "" : "none";
      }

      // Incremental windowed rendering: each fetch appends one page, the
      // server keeps total stable for the same filters.
      function fetchCredits(append) {
        if (!append) { state.offset = 0; }
        var qs = queryString({ limit: state.pageSize, offset: state.offset });
        fetch("/api/v1/credits?" + qs)
          .then(function (r) { return r.json().then(function (b) { return { ok: r.ok, body: b }; }); })
          .then(function (res) {
            if (!res.ok) {
              el("credits-flash").className = "flash bad";
              el("credits-flash").textContent = res.body.error || "query failed";
              return;
            }
            el("credits-flash").textContent = "";
            state.total = res.body.meta.total;
            state.rows = append ? state.rows.concat(res.body.data) : res.body.data;
            renderRows();
            renderSummary(res.body.meta);
          })
          .catch(function (err) {
            el("credits-flash").className = "flash bad";
            el("credits-flash").textContent = String(err);
          });
      }

      function fetchFacets() {
        fetch("/api/v1/credits/facets")
          .then(function (r) { return r.json(); })
          .then(function (body) {
            var f = body.data;
            var chips = [
              '<span class="chip">Total: ' + esc(f.total) + "</span>",
              '<span class="chip">Active: ' + esc(f.status_counts.Active) + "</span>",
              '<span class="chip">Retired: ' + esc(f.status_counts.Retired) + "</span>",
              '<span class="chip">Vintages: ' + esc(f.vintage_min) + "&ndash;" + esc(f.vintage_max) + "</span>"
            ];
            el("facet-chips").innerHTML = chips.join("");
          })
          .catch(function () {
            el("facet-chips").innerHTML = '<span class="chip">Facets unavailable</span>';
          });
      }

      function fetchCatalogueStatus() {
        fetch("/api/v1/catalogue/status")
          .then(function (r) { return r.json(); })
          .then(function (body) {
            el("header-note").textContent =
              body.count_human + " credits from " + body.source_kind + " source, loaded " + body.loaded_ago;
            var rows = [
              ["Source", body.source],
              ["Kind", body.source_kind],
              ["Credits", body.count_human + (body.skipped ? " (" + body.skipped + " skipped)" : "")],
              ["Loaded", body.loaded_at + " (" + body.loaded_ago + ")"],
              ["Last error", body.last_error || "none"]
            ];
            el("catalogue-status-body").innerHTML = rows.map(function (r2) {
              return "<tr><th style=\"width:140px\">" + esc(r2[0]) + "</th><td>" + esc(r2[1]) + "</td></tr>";
            }).join("");
          })
          .catch(function () {
            el("header-note").textContent = "Catalogue status unavailable";
          });
      }

      function fetchCertificates() {
        fetch("/api/v1/certificates?limit=100")
          .then(function (r) { return r.json().then(function (b) { return { ok: r.ok, status: r.status, body: b }; }); })
          .then(function (res) {
            var body = el("certs-body");
            if (!res.ok) {
              body.innerHTML = '<tr><td colspan="7">' + esc(res.body.error || "unavailable") +
                (res.body.hint ? " &mdash; " + esc(res.body.hint) : "") + "</td></tr>";
              return;
            }
            if (res.body.data.length === 0) {
              body.innerHTML = '<tr><td colspan="7">No certificates issued yet.</td></tr>';
              return;
            }
            body.innerHTML = res.body.data.map(function (c) {
              return "<tr>" +
                '<td class="mono">' + esc(c.id) + "</td>" +
                '<td class="mono">' + esc(c.unic_id) + "</td>" +
                "<td>" + esc(c.project_name) + "</td>" +
                "<td>" + esc(c.vintage) + "</td>" +
                "<td>" + statusBadge(c.status) + "</td>" +
                "<td>" + esc(c.format.toUpperCase()) + "</td>" +
                "<td>" + esc(c.issued_at) + "</td>" +
              "</tr>";
            }).join("");
          });
      }

      function fetchViews() {
        fetch("/api/v1/views")
          .then(function (r) { return r.json().then(function (b) { return { ok: r.ok, body: b }; }); })
          .then(function (res) {
            var body = el("views-body");
            if (!res.ok) {
              body.innerHTML = '<tr><td colspan="5">' + esc(res.body.error || "unavailable") +
                (res.body.hint ? " &mdash; " + esc(res.body.hint) : "") + "</td></tr>";
              return;
            }
            if (res.body.data.length === 0) {
              body.innerHTML = '<tr><td colspan="5">No saved views.</td></tr>';
              return;
            }
            body.innerHTML = res.body.data.map(function (v) {
              return "<tr>" +
                "<td>" + esc(v.name) + "</td>" +
                "<td>" + esc(v.description) + "</td>" +
                '<td class="mono">' + esc(v.config_json) + "</td>" +
                "<td>" + esc(v.updated_at || "") + "</td>" +
                '<td class="row-actions">' +
                  '<button type="button" data-view-load="' + esc(v.config_json) + '">Load</button> ' +
                  '<button type="button" data-view-delete="' + esc(v.id) + '">Delete</button>' +
                "</td>" +
              "</tr>";
            }).join("");
          });
      }

      function fetchServices() {
        fetch("/api/v1/status/services")
          .then(function (r) { return r.json(); })
          .then(function (body) {
            el("services-json").textContent = JSON.stringify(body, null, 2);
          })
          .catch(function (err) {
            el("services-json").textContent = String(err);
          });
      }

      function readFilters() {
        state.q = el("credit-search").value.trim();
        state.status = el("filter-status").value;
        state.vintageFrom = el("filter-vintage-from").value;
        state.vintageTo = el("filter-vintage-to").value;
        state.sort = el("filter-sort").value;
      }

      var debouncedQuery = debounce(function () {
        readFilters();
        fetchCredits(false);
      }, 300);

      el("credit-search").addEventListener("input", debouncedQuery);
      ["filter-status", "filter-vintage-from", "filter-vintage-to", "filter-sort"].forEach(function (id) {
        el(id).addEventListener("change", function () {
          readFilters();
          fetchCredits(false);
        });
      });

      el("credits-load-more").addEventListener("click", function () {
        state.offset += state.pageSize;
        fetchCredits(true);
      });

      el("credits-export").addEventListener("click", function () {
        readFilters();
        window.location = "/api/v1/credits/export?" + queryString();
      });

      el("credits-body").addEventListener("click", function (ev) {
        var btn = ev.target.closest("button[data-cert-id]");
        if (!btn) { return; }
        var url = "/api/v1/credits/" + encodeURIComponent(btn.getAttribute("data-cert-id")) +
          "/certificate?format=" + btn.getAttribute("data-cert-format");
        window.open(url, "_blank");
        setTimeout(fetchCertificates, 800);
      });

      el("view-save").addEventListener("click", function () {
        var name = el("view-name").value.trim();
        if (!name) {
          el("credits-flash").className = "flash bad";
          el("credits-flash").textContent = "view name required";
          return;
        }
        readFilters();
        fetch("/api/v1/views", {
          method: "POST",
          headers: { "Content-Type": "application/json" },
          body: JSON.stringify({
            name: name,
            description: "",
            config: {
              q: state.q, status: state.status,
              vintage_from: state.vintageFrom, vintage_to: state.vintageTo,
              sort: state.sort
            }
          })
        }).then(function (r) {
          el("credits-flash").className = r.ok ? "flash ok" : "flash bad";
          el("credits-flash").textContent = r.ok ? "view saved" : "failed to save view";
          fetchViews();
        });
      });

      el("views-body").addEventListener("click", function (ev) {
        var loadBtn = ev.target.closest("button[data-view-load]");
        if (loadBtn) {
          try {
            var cfg = JSON.parse(loadBtn.getAttribute("data-view-load"));
            el("credit-search").value = cfg.q || "";
            el("filter-status").value = cfg.status || "";
            el("filter-vintage-from").value = cfg.vintage_from || "";
            el("filter-vintage-to").value = cfg.vintage_to || "";
            el("filter-sort").value = cfg.sort || "id_asc";
            readFilters();
            fetchCredits(false);
            activateTab("tab-credits");
          } catch (e) { /* malformed config, leave filters untouched */ }
          return;
        }
        var delBtn = ev.target.closest("button[data-view-delete]");
        if (delBtn) {
          fetch("/api/v1/views/" + delBtn.getAttribute("data-view-delete"), { method: "DELETE" })
            .then(fetchViews);
        }
      });

      el("catalogue-reload").addEventListener("click", function () {
        fetch("/api/v1/catalogue/reload", { method: "POST" })
          .then(function (r) { return r.json().then(function (b) { return { ok: r.ok, body: b }; }); })
          .then(function (res) {
            var flash = el("reload-flash");
            flash.className = res.ok ? "flash ok" : "flash bad";
            flash.textContent = res.ok
              ? "reloaded " + res.body.meta.loaded + " credits"
              : (res.body.error || "reload failed");
            fetchCatalogueStatus();
            fetchFacets();
            fetchCredits(false);
          });
      });

      function activateTab(id) {
        document.querySelectorAll(".tab-btn[data-tab]").forEach(function (b) {
          b.classList.toggle("active", b.getAttribute("data-tab") === id);
        });
        document.querySelectorAll(".tab-pane").forEach(function (p) {
          p.classList.toggle("active", p.id === id);
        });
        if (id === "tab-certificates") { fetchCertificates(); }
        if (id === "tab-views") { fetchViews(); }
        if (id === "tab-services") { fetchCatalogueStatus(); fetchServices(); }
      }

      document.querySelectorAll(".tab-btn[data-tab]").forEach(function (btn) {
        btn.addEventListener("click", function () { activateTab(btn.getAttribute("data-tab")); });
      });

      fetchCatalogueStatus();
      fetchFacets();
      fetchCredits(false);
    })();
  </script>
</body>
</html>
`
