package api

import "net/http"

const indexText = `This service resolves public Telegram usernames to chat information.

See /api_doc for how to use it. Access requires an api_key.
`

const apiDocText = `GET /resolveUsername?api_key=<key>&username=<username>

Resolves a public username to its chat information. The username may carry a
leading "@" and is matched case-insensitively.

Success (200):
  {"ok": true, "result": {"id": ..., "type": "private|supergroup|channel",
   "username": ..., "first_name"?, "last_name"?, "bio"?, "title"?, "description"?}}

Errors:
  400 {"ok": false, "error_code": 400, "description": "Bad Request: chat not found"}
  401 {"ok": false, "error_code": 401, "description": "Unauthorized"}
  429 {"ok": false, "error_code": 429, "description": "Telegram forces us to wait",
       "retry_after": <seconds>}

Channel and supergroup ids carry the Bot API "-100" prefix.
`

func indexPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(indexText)); err != nil {
		_ = err
	}
}

func apiDocPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(apiDocText)); err != nil {
		_ = err
	}
}
