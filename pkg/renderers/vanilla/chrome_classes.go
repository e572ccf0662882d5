package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassBody    ChromeClass = "fp-body"
	ClassSidebar ChromeClass = "fp-sidebar"
	ClassClient  ChromeClass = "fp-client"
	ClassTabs    ChromeClass = "fp-tabs"
	ClassMain    ChromeClass = "fp-main"
	ClassHeading ChromeClass = "fp-heading"
	ClassNotice  ChromeClass = "fp-notice"
	ClassErrors  ChromeClass = "fp-errors"
	ClassForm    ChromeClass = "fp-form"
	ClassActions ChromeClass = "fp-actions"
	ClassDenied  ChromeClass = "fp-denied"
	ClassMessage ChromeClass = "fp-message"
)

// chromeSlots maps template slots to their default classes.
var chromeSlots = map[string]ChromeClass{
	"body":    ClassBody,
	"sidebar": ClassSidebar,
	"client":  ClassClient,
	"tabs":    ClassTabs,
	"main":    ClassMain,
	"heading": ClassHeading,
	"notice":  ClassNotice,
	"errors":  ClassErrors,
	"form":    ClassForm,
	"actions": ClassActions,
	"denied":  ClassDenied,
	"message": ClassMessage,
}

// chromeClasses resolves the class list for every slot. Extra classes are
// appended to the default, so built-in styles keep applying.
func chromeClasses(extra map[string]string) map[string]string {
	out := make(map[string]string, len(chromeSlots))
	for slot, class := range chromeSlots {
		value := string(class)
		if add := sanitizeClassList(extra[slot]); add != "" {
			value += " " + add
		}
		out[slot] = value
	}
	return out
}
