package accounts

import "strconv"

// DeletePolicy controls what happens to a message's server copy when it is
// deleted locally. Unlike the other settings it is persisted as its numeric
// setting value, not its symbolic name.
type DeletePolicy int

const (
	DeleteNever      DeletePolicy = 0
	DeleteSevenDays  DeletePolicy = 1
	DeleteOnDelete   DeletePolicy = 2
	DeleteMarkAsRead DeletePolicy = 3
)

// Setting returns the persisted numeric value.
func (p DeletePolicy) Setting() int { return int(p) }

// ParseDeletePolicy decodes a persisted numeric setting value.
func ParseDeletePolicy(setting int) (DeletePolicy, error) {
	switch p := DeletePolicy(setting); p {
	case DeleteNever, DeleteSevenDays, DeleteOnDelete, DeleteMarkAsRead:
		return p, nil
	}
	return 0, &UnknownValueError{Setting: "DeletePolicy", Value: strconv.Itoa(setting)}
}

// ExpungePolicy controls when permanently-deleted messages are purged from
// the server.
type ExpungePolicy string

const (
	ExpungeImmediately ExpungePolicy = "EXPUNGE_IMMEDIATELY"
	ExpungeManually    ExpungePolicy = "EXPUNGE_MANUALLY"
	ExpungeOnPoll      ExpungePolicy = "EXPUNGE_ON_POLL"
)

// ParseExpungePolicy decodes a stored symbolic name, case-sensitively.
func ParseExpungePolicy(s string) (ExpungePolicy, error) {
	return parseEnum("ExpungePolicy", s, ExpungeImmediately, ExpungeManually, ExpungeOnPoll)
}

// FolderMode selects which folder classes an operation applies to.
type FolderMode string

const (
	FolderModeNone                FolderMode = "NONE"
	FolderModeAll                 FolderMode = "ALL"
	FolderModeFirstClass          FolderMode = "FIRST_CLASS"
	FolderModeFirstAndSecondClass FolderMode = "FIRST_AND_SECOND_CLASS"
	FolderModeNotSecondClass      FolderMode = "NOT_SECOND_CLASS"
)

// ParseFolderMode decodes a stored symbolic name, case-sensitively.
func ParseFolderMode(s string) (FolderMode, error) {
	return parseEnum("FolderMode", s, FolderModeNone, FolderModeAll, FolderModeFirstClass,
		FolderModeFirstAndSecondClass, FolderModeNotSecondClass)
}

// SpecialFolderSelection records whether a special-folder mapping was chosen
// automatically by the client or manually by the user.
type SpecialFolderSelection string

const (
	SelectionAutomatic SpecialFolderSelection = "AUTOMATIC"
	SelectionManual    SpecialFolderSelection = "MANUAL"
)

// ParseSpecialFolderSelection decodes a stored symbolic name, case-sensitively.
func ParseSpecialFolderSelection(s string) (SpecialFolderSelection, error) {
	return parseEnum("SpecialFolderSelection", s, SelectionAutomatic, SelectionManual)
}

// ShowPictures controls when remote images in messages are displayed.
type ShowPictures string

const (
	ShowPicturesNever            ShowPictures = "NEVER"
	ShowPicturesAlways           ShowPictures = "ALWAYS"
	ShowPicturesOnlyFromContacts ShowPictures = "ONLY_FROM_CONTACTS"
)

// ParseShowPictures decodes a stored symbolic name, case-sensitively.
func ParseShowPictures(s string) (ShowPictures, error) {
	return parseEnum("ShowPictures", s, ShowPicturesNever, ShowPicturesAlways, ShowPicturesOnlyFromContacts)
}

// Searchable selects which folders local search covers.
type Searchable string

const (
	SearchableAll         Searchable = "ALL"
	SearchableDisplayable Searchable = "DISPLAYABLE"
	SearchableNone        Searchable = "NONE"
)

// ParseSearchable decodes a stored symbolic name, case-sensitively.
func ParseSearchable(s string) (Searchable, error) {
	return parseEnum("Searchable", s, SearchableAll, SearchableDisplayable, SearchableNone)
}

// QuoteStyle selects how quoted text is rendered in replies.
type QuoteStyle string

const (
	QuotePrefix QuoteStyle = "PREFIX"
	QuoteHeader QuoteStyle = "HEADER"
)

// ParseQuoteStyle decodes a stored symbolic name, case-sensitively.
func ParseQuoteStyle(s string) (QuoteStyle, error) {
	return parseEnum("QuoteStyle", s, QuotePrefix, QuoteHeader)
}

// MessageFormat selects the outgoing message body format.
//
// FormatAuto is never persisted as-is: readers unaware of the variant would
// fail on it. It is stored as FormatText plus a separate boolean flag, and
// reconstructed on load.
type MessageFormat string

const (
	FormatText MessageFormat = "TEXT"
	FormatHTML MessageFormat = "HTML"
	FormatAuto MessageFormat = "AUTO"
)

// ParseMessageFormat decodes a stored symbolic name, case-sensitively.
// FormatAuto is accepted for completeness even though save never writes it.
func ParseMessageFormat(s string) (MessageFormat, error) {
	return parseEnum("MessageFormat", s, FormatText, FormatHTML, FormatAuto)
}

// SortType identifies a message-list sort key. Each sort type carries its
// own default direction.
type SortType string

const (
	SortDate       SortType = "SORT_DATE"
	SortArrival    SortType = "SORT_ARRIVAL"
	SortSubject    SortType = "SORT_SUBJECT"
	SortSender     SortType = "SORT_SENDER"
	SortUnread     SortType = "SORT_UNREAD"
	SortFlagged    SortType = "SORT_FLAGGED"
	SortAttachment SortType = "SORT_ATTACHMENT"
)

// DefaultSortType is the sort key used by fresh accounts.
const DefaultSortType = SortDate

// DefaultAscending returns the default direction for this sort key when the
// user has not chosen one.
func (t SortType) DefaultAscending() bool {
	switch t {
	case SortSubject, SortSender, SortUnread, SortFlagged, SortAttachment:
		return true
	default:
		return false
	}
}

// ParseSortType decodes a stored symbolic name, case-sensitively.
func ParseSortType(s string) (SortType, error) {
	return parseEnum("SortType", s, SortDate, SortArrival, SortSubject, SortSender,
		SortUnread, SortFlagged, SortAttachment)
}

// NetworkType classifies the connection a sync runs over, for per-network
// compression preferences.
type NetworkType string

const (
	NetworkWifi   NetworkType = "WIFI"
	NetworkMobile NetworkType = "MOBILE"
	NetworkOther  NetworkType = "OTHER"
)

// NetworkTypes lists every network type, in persistence order.
var NetworkTypes = []NetworkType{NetworkWifi, NetworkMobile, NetworkOther}

// parseEnum matches a stored literal against the valid variants of an
// enum type. Matching is exact and case-sensitive: stored settings either
// decode to a known variant or fail the load.
func parseEnum[T ~string](setting, raw string, valid ...T) (T, error) {
	for _, v := range valid {
		if string(v) == raw {
			return v, nil
		}
	}
	var zero T
	return zero, &UnknownValueError{Setting: setting, Value: raw}
}
