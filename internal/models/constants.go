// Package models contains data types, endpoint paths and message catalogs for lmchat.
package models

import (
	"net/url"

	"golang.org/x/text/language"
)

// Endpoint paths relative to the configured base URL
const (
	PathChat    = "/api/chat"
	PathClear   = "/api/clear/"
	PathHistory = "/api/history/"
)

// DefaultBaseURL is where the chat server listens out of the box
const DefaultBaseURL = "http://127.0.0.1:5000"

// ClearPath returns the clear endpoint path for a session
func ClearPath(sessionID string) string {
	return PathClear + url.PathEscape(sessionID)
}

// HistoryPath returns the history endpoint path for a session
func HistoryPath(sessionID string) string {
	return PathHistory + url.PathEscape(sessionID)
}

// Strings holds the user-facing text for one locale
type Strings struct {
	Greeting             string
	EndpointErrorPrefix  string
	TransportErrorPrefix string
	Typing               string
	ClearConfirm         string
	ClearFailed          string
	InputPlaceholder     string
	CopyDone             string
	CopyFailed           string
	NothingToCopy        string
}

var (
	englishStrings = Strings{
		Greeting:             "Hello! How can I help you today?",
		EndpointErrorPrefix:  "Error: ",
		TransportErrorPrefix: "Connection error: ",
		Typing:               "Typing",
		ClearConfirm:         "Clear the conversation history?",
		ClearFailed:          "Failed to clear the chat.",
		InputPlaceholder:     "Type your message here...",
		CopyDone:             "Copied reply to clipboard",
		CopyFailed:           "Copy failed: ",
		NothingToCopy:        "No reply to copy yet",
	}

	japaneseStrings = Strings{
		Greeting:             "こんにちは！何かお手伝いできることはありますか？",
		EndpointErrorPrefix:  "エラー: ",
		TransportErrorPrefix: "通信エラー: ",
		Typing:               "入力中",
		ClearConfirm:         "会話履歴をクリアしますか？",
		ClearFailed:          "チャットのクリアに失敗しました。",
		InputPlaceholder:     "メッセージを入力してください...",
		CopyDone:             "返信をクリップボードにコピーしました",
		CopyFailed:           "コピーに失敗しました: ",
		NothingToCopy:        "コピーできる返信はまだありません",
	}
)

var matcher = language.NewMatcher([]language.Tag{
	language.English, // first tag is the fallback
	language.Japanese,
})

// StringsFor returns the catalog best matching the given locale preferences
// (BCP 47 tags or POSIX values such as "ja_JP.UTF-8"). Empty preferences
// fall back to English.
func StringsFor(prefs ...string) Strings {
	var cleaned []string
	for _, p := range prefs {
		if p = posixToBCP47(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return englishStrings
	}

	tag, _ := language.MatchStrings(matcher, cleaned...)
	base, _ := tag.Base()
	if ja, _ := language.Japanese.Base(); base == ja {
		return japaneseStrings
	}
	return englishStrings
}

// posixToBCP47 strips encoding/modifier suffixes and swaps '_' for '-'
func posixToBCP47(s string) string {
	for i, r := range s {
		if r == '.' || r == '@' {
			s = s[:i]
			break
		}
	}
	if s == "C" || s == "POSIX" {
		return ""
	}
	b := []byte(s)
	for i := range b {
		if b[i] == '_' {
			b[i] = '-'
		}
	}
	return string(b)
}
