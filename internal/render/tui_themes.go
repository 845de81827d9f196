package render

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TUITheme is the color scheme of the chat screen
type TUITheme struct {
	Name        string
	Description string

	Border lipgloss.Color

	// User is the accent of user messages and the input box focus ring.
	User lipgloss.Color
	// Assistant is the accent of assistant messages.
	Assistant lipgloss.Color
	// Pending colors the typing placeholder spinner.
	Pending lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
}

var (
	// TokyoNightTheme is the default
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - dark with blue accents",
		Border:      lipgloss.Color("#414868"),
		User:        lipgloss.Color("#7aa2f7"),
		Assistant:   lipgloss.Color("#9ece6a"),
		Pending:     lipgloss.Color("#bb9af7"),
		Warning:     lipgloss.Color("#e0af68"),
		Error:       lipgloss.Color("#f7768e"),
		Text:        lipgloss.Color("#c0caf5"),
		TextDim:     lipgloss.Color("#565f89"),
	}

	CatppuccinMochaTheme = TUITheme{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha - warm pastels",
		Border:      lipgloss.Color("#45475a"),
		User:        lipgloss.Color("#89b4fa"),
		Assistant:   lipgloss.Color("#a6e3a1"),
		Pending:     lipgloss.Color("#cba6f7"),
		Warning:     lipgloss.Color("#f9e2af"),
		Error:       lipgloss.Color("#f38ba8"),
		Text:        lipgloss.Color("#cdd6f4"),
		TextDim:     lipgloss.Color("#6c7086"),
	}

	NordTheme = TUITheme{
		Name:        "nord",
		Description: "Nord - cool arctic tones",
		Border:      lipgloss.Color("#4c566a"),
		User:        lipgloss.Color("#88c0d0"),
		Assistant:   lipgloss.Color("#a3be8c"),
		Pending:     lipgloss.Color("#b48ead"),
		Warning:     lipgloss.Color("#ebcb8b"),
		Error:       lipgloss.Color("#bf616a"),
		Text:        lipgloss.Color("#eceff4"),
		TextDim:     lipgloss.Color("#7b88a1"),
	}

	// LightTheme suits bright terminals; pair it with the "light" markdown style.
	LightTheme = TUITheme{
		Name:        "light",
		Description: "Light - dark text on bright backgrounds",
		Border:      lipgloss.Color("#c0c0c0"),
		User:        lipgloss.Color("#1d4ed8"),
		Assistant:   lipgloss.Color("#15803d"),
		Pending:     lipgloss.Color("#7e22ce"),
		Warning:     lipgloss.Color("#b45309"),
		Error:       lipgloss.Color("#b91c1c"),
		Text:        lipgloss.Color("#1f2937"),
		TextDim:     lipgloss.Color("#6b7280"),
	}
)

var tuiThemes = map[string]TUITheme{
	TokyoNightTheme.Name:      TokyoNightTheme,
	CatppuccinMochaTheme.Name: CatppuccinMochaTheme,
	NordTheme.Name:            NordTheme,
	LightTheme.Name:           LightTheme,
}

var (
	themeMu         sync.RWMutex
	currentTUITheme = TokyoNightTheme
)

// GetTUITheme returns the active theme
func GetTUITheme() TUITheme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTUITheme
}

// SetTUITheme activates the named theme; unknown names are ignored and
// reported with false.
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	themeMu.Lock()
	currentTUITheme = theme
	themeMu.Unlock()
	return true
}

// GetTUIThemeByName looks a theme up by name
func GetTUIThemeByName(name string) (TUITheme, bool) {
	theme, ok := tuiThemes[name]
	return theme, ok
}

// TUIThemeNames returns the known theme names, sorted
func TUIThemeNames() []string {
	names := make([]string, 0, len(tuiThemes))
	for name := range tuiThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
