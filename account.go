package accounts

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// InboxFolder is the fixed inbox name; it never changes for POP3 and IMAP.
const InboxFolder = "INBOX"

// OutboxFolder is the local folder used to queue messages to be sent. It is
// client-local and never appears on the server.
const OutboxFolder = "MAILKIT_INTERNAL_OUTBOX"

// FallbackColor is the chip color used when none was stored.
const FallbackColor = 0x0099CC

// DefaultVisibleLimit is the default number of messages shown per folder.
const DefaultVisibleLimit = 25

// DefaultRemoteSearchNumResults bounds server-side search results.
const DefaultRemoteSearchNumResults = 25

// NoOpenPGPKey is the sentinel for "no key configured".
const NoOpenPGPKey = 0

// NotificationSettings groups the new-mail alerting knobs of an account.
type NotificationSettings struct {
	Vibrate        bool
	VibratePattern int
	VibrateTimes   int
	RingEnabled    bool
	Ringtone       string
	LedEnabled     bool
	LedColor       int
}

// Account holds every setting of a single mail account. Each account is
// identified by an immutable UUID assigned at creation.
//
// One mutex guards the whole record, so compound updates (a folder name and
// its selection mode, the sort map) are observed together. An Account is not
// tied to a Manager; Save persists whatever state the record holds.
type Account struct {
	mu sync.Mutex

	uuid string

	storeUri               string
	transportUri           string
	localStorageProviderID string
	description            string
	alwaysBcc              string

	automaticCheckIntervalMinutes int
	idleRefreshMinutes            int
	pushPollOnConnect             bool
	displayCount                  int
	chipColor                     int
	latestOldMessageSeenTime      int64

	notifyNewMail           bool
	folderNotifyNewMailMode FolderMode
	notifySelfNewMail       bool
	notifyContactsMailOnly  bool
	notifySync              bool
	notification            NotificationSettings

	deletePolicy DeletePolicy

	inboxFolder            string
	draftsFolder           string
	sentFolder             string
	trashFolder            string
	archiveFolder          string
	spamFolder             string
	draftsFolderSelection  SpecialFolderSelection
	sentFolderSelection    SpecialFolderSelection
	trashFolderSelection   SpecialFolderSelection
	archiveFolderSelection SpecialFolderSelection
	spamFolderSelection    SpecialFolderSelection
	autoExpandFolder       string

	folderDisplayMode FolderMode
	folderSyncMode    FolderMode
	folderPushMode    FolderMode
	folderTargetMode  FolderMode

	number int

	sortType      SortType
	sortAscending map[SortType]bool

	showPictures              ShowPictures
	signatureBeforeQuotedText bool
	expungePolicy             ExpungePolicy
	maxPushFolders            int
	goToUnreadMessageSearch   bool
	compression               map[NetworkType]bool
	searchableFolders         Searchable
	subscribedFoldersOnly     bool

	maximumPolledMessageAge        int
	maximumAutoDownloadMessageSize int

	messageFormat      MessageFormat
	messageFormatAuto  bool
	messageReadReceipt bool
	quoteStyle         QuoteStyle
	quotePrefix        string
	quotedTextShown    bool
	replyAfterQuote    bool
	stripSignature     bool

	syncRemoteDeletions bool

	openPgpProvider              string
	openPgpKey                   int64
	openPgpHideSignOnly          bool
	openPgpEncryptSubject        bool
	openPgpEncryptAllDrafts      bool
	autocryptPreferEncryptMutual bool

	markMessageAsReadOnView bool
	alwaysShowCcBcc         bool

	allowRemoteSearch      bool
	remoteSearchFullText   bool
	remoteSearchNumResults int

	uploadSentMessages bool

	enabled bool

	// lastSelectedFolder is the target of the most recent copy or move.
	// It is deliberately not persisted.
	lastSelectedFolder string

	// ringNotified tracks whether a new-mail notification fired for the
	// current batch of fetched messages. Runtime-only.
	ringNotified bool

	identities []Identity
}

// NewAccount returns a fresh account with a random UUID and default settings.
// The account number stays -1 until the first Save assigns one.
func NewAccount(opts ...AccountOption) *Account {
	ao := newAccountOptions(opts...)

	a := &Account{
		uuid:                          uuid.NewString(),
		localStorageProviderID:        ao.storageProviderID,
		automaticCheckIntervalMinutes: -1,
		idleRefreshMinutes:            24,
		pushPollOnConnect:             true,
		displayCount:                  DefaultVisibleLimit,
		number:                        -1,
		notifyNewMail:                 true,
		folderNotifyNewMailMode:       FolderModeAll,
		notifySync:                    true,
		notifySelfNewMail:             true,
		folderDisplayMode:             FolderModeNotSecondClass,
		folderSyncMode:                FolderModeFirstClass,
		folderPushMode:                FolderModeFirstClass,
		folderTargetMode:              FolderModeNotSecondClass,
		sortType:                      DefaultSortType,
		sortAscending:                 map[SortType]bool{DefaultSortType: false},
		showPictures:                  ShowPicturesNever,
		expungePolicy:                 ExpungeImmediately,
		inboxFolder:                   InboxFolder,
		autoExpandFolder:              InboxFolder,
		maxPushFolders:                10,
		compression:                   make(map[NetworkType]bool),
		searchableFolders:             SearchableAll,
		maximumPolledMessageAge:       -1,
		maximumAutoDownloadMessageSize: 32768,
		messageFormat:                 FormatHTML,
		quoteStyle:                    QuotePrefix,
		quotePrefix:                   ">",
		quotedTextShown:               true,
		stripSignature:                true,
		syncRemoteDeletions:           true,
		draftsFolderSelection:         SelectionAutomatic,
		sentFolderSelection:           SelectionAutomatic,
		trashFolderSelection:          SelectionAutomatic,
		archiveFolderSelection:        SelectionAutomatic,
		spamFolderSelection:           SelectionAutomatic,
		remoteSearchNumResults:        DefaultRemoteSearchNumResults,
		uploadSentMessages:            true,
		enabled:                       true,
		markMessageAsReadOnView:       true,
		openPgpHideSignOnly:           true,
		openPgpEncryptSubject:         true,
		openPgpEncryptAllDrafts:       true,
		notification: NotificationSettings{
			Vibrate:        false,
			VibratePattern: 0,
			VibrateTimes:   5,
			RingEnabled:    true,
			Ringtone:       "content://settings/system/notification_sound",
			LedEnabled:     true,
		},
		identities: []Identity{{
			SignatureUse: true,
			Signature:    ao.defaultSignature,
			Description:  ao.defaultIdentityDescription,
		}},
	}
	return a
}

// UUID returns the account's immutable identifier.
func (a *Account) UUID() string { return a.uuid }

// Number returns the small stable integer assigned on first save, or -1 if
// the account has never been saved.
func (a *Account) Number() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.number
}

// StoreURI returns the incoming-server connection URI.
func (a *Account) StoreURI() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storeUri
}

func (a *Account) SetStoreURI(uri string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.storeUri = uri
}

// TransportURI returns the outgoing-server connection URI.
func (a *Account) TransportURI() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transportUri
}

func (a *Account) SetTransportURI(uri string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transportUri = uri
}

// LocalStorageProviderID identifies where the account's local message store
// lives. Change it through Manager.SetLocalStorageProviderID so the data is
// relocated first.
func (a *Account) LocalStorageProviderID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.localStorageProviderID
}

// Description returns the user-visible account description.
func (a *Account) Description() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.description
}

func (a *Account) SetDescription(description string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.description = description
}

// DisplayName returns the description, falling back to the primary
// identity's email address when no description is set.
func (a *Account) DisplayName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.description != "" {
		return a.description
	}
	return a.identities[0].Email
}

// AlwaysBcc returns the address copied on every outgoing message, if any.
func (a *Account) AlwaysBcc() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alwaysBcc
}

func (a *Account) SetAlwaysBcc(addr string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alwaysBcc = addr
}

// AutomaticCheckIntervalMinutes returns the poll interval, or -1 for never.
func (a *Account) AutomaticCheckIntervalMinutes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.automaticCheckIntervalMinutes
}

// SetAutomaticCheckIntervalMinutes sets the poll interval (-1 for never) and
// reports whether the value changed.
func (a *Account) SetAutomaticCheckIntervalMinutes(minutes int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := a.automaticCheckIntervalMinutes != minutes
	a.automaticCheckIntervalMinutes = minutes
	return changed
}

func (a *Account) IdleRefreshMinutes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.idleRefreshMinutes
}

func (a *Account) SetIdleRefreshMinutes(minutes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.idleRefreshMinutes = minutes
}

func (a *Account) PushPollOnConnect() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pushPollOnConnect
}

func (a *Account) SetPushPollOnConnect(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushPollOnConnect = v
}

// DisplayCount returns how many messages are shown per folder.
func (a *Account) DisplayCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayCount
}

// SetDisplayCount sets the visible-message limit; -1 restores the default.
func (a *Account) SetDisplayCount(count int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if count != -1 {
		a.displayCount = count
	} else {
		a.displayCount = DefaultVisibleLimit
	}
}

func (a *Account) ChipColor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chipColor
}

func (a *Account) SetChipColor(color int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chipColor = color
}

func (a *Account) LatestOldMessageSeenTime() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latestOldMessageSeenTime
}

func (a *Account) SetLatestOldMessageSeenTime(t int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latestOldMessageSeenTime = t
}

func (a *Account) NotifyNewMail() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notifyNewMail
}

func (a *Account) SetNotifyNewMail(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifyNewMail = v
}

func (a *Account) FolderNotifyNewMailMode() FolderMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.folderNotifyNewMailMode
}

func (a *Account) SetFolderNotifyNewMailMode(mode FolderMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.folderNotifyNewMailMode = mode
}

func (a *Account) NotifySelfNewMail() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notifySelfNewMail
}

func (a *Account) SetNotifySelfNewMail(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifySelfNewMail = v
}

func (a *Account) NotifyContactsMailOnly() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notifyContactsMailOnly
}

func (a *Account) SetNotifyContactsMailOnly(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifyContactsMailOnly = v
}

// ShowOngoing reports whether a persistent notification is shown while a
// mail check runs.
func (a *Account) ShowOngoing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notifySync
}

func (a *Account) SetShowOngoing(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifySync = v
}

// Notification returns a copy of the notification settings.
func (a *Account) Notification() NotificationSettings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notification
}

func (a *Account) SetNotification(n NotificationSettings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notification = n
}

func (a *Account) DeletePolicy() DeletePolicy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deletePolicy
}

func (a *Account) SetDeletePolicy(p DeletePolicy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deletePolicy = p
}

// Special folders. An empty name means the folder is not set. Name and
// selection mode are always updated together.

func (a *Account) InboxFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inboxFolder
}

func (a *Account) SetInboxFolder(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inboxFolder = name
}

func (a *Account) DraftsFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draftsFolder
}

func (a *Account) SetDraftsFolder(name string, selection SpecialFolderSelection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draftsFolder = name
	a.draftsFolderSelection = selection
}

func (a *Account) HasDraftsFolder() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draftsFolder != ""
}

func (a *Account) SentFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sentFolder
}

func (a *Account) SetSentFolder(name string, selection SpecialFolderSelection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sentFolder = name
	a.sentFolderSelection = selection
}

func (a *Account) HasSentFolder() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sentFolder != ""
}

func (a *Account) TrashFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trashFolder
}

func (a *Account) SetTrashFolder(name string, selection SpecialFolderSelection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trashFolder = name
	a.trashFolderSelection = selection
}

func (a *Account) HasTrashFolder() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trashFolder != ""
}

func (a *Account) ArchiveFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archiveFolder
}

func (a *Account) SetArchiveFolder(name string, selection SpecialFolderSelection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archiveFolder = name
	a.archiveFolderSelection = selection
}

func (a *Account) HasArchiveFolder() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archiveFolder != ""
}

func (a *Account) SpamFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spamFolder
}

func (a *Account) SetSpamFolder(name string, selection SpecialFolderSelection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.spamFolder = name
	a.spamFolderSelection = selection
}

func (a *Account) HasSpamFolder() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spamFolder != ""
}

func (a *Account) DraftsFolderSelection() SpecialFolderSelection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draftsFolderSelection
}

func (a *Account) SentFolderSelection() SpecialFolderSelection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sentFolderSelection
}

func (a *Account) TrashFolderSelection() SpecialFolderSelection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trashFolderSelection
}

func (a *Account) ArchiveFolderSelection() SpecialFolderSelection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archiveFolderSelection
}

func (a *Account) SpamFolderSelection() SpecialFolderSelection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spamFolderSelection
}

// OutboxFolder returns the fixed local outbox name.
func (a *Account) OutboxFolder() string { return OutboxFolder }

func (a *Account) AutoExpandFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.autoExpandFolder
}

func (a *Account) SetAutoExpandFolder(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoExpandFolder = name
}

// IsSpecialFolder reports whether the given folder is one of the account's
// special folders (inbox, outbox, drafts, sent, trash, archive, spam).
func (a *Account) IsSpecialFolder(folder string) bool {
	if folder == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return folder == a.inboxFolder ||
		folder == a.trashFolder ||
		folder == a.draftsFolder ||
		folder == a.archiveFolder ||
		folder == a.spamFolder ||
		folder == OutboxFolder ||
		folder == a.sentFolder
}

func (a *Account) FolderDisplayMode() FolderMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.folderDisplayMode
}

// SetFolderDisplayMode reports whether the mode changed.
func (a *Account) SetFolderDisplayMode(mode FolderMode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := a.folderDisplayMode != mode
	a.folderDisplayMode = mode
	return changed
}

func (a *Account) FolderSyncMode() FolderMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.folderSyncMode
}

// SetFolderSyncMode reports whether syncing toggled between enabled and
// fully disabled, which is when the caller needs to reschedule polling.
func (a *Account) SetFolderSyncMode(mode FolderMode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	old := a.folderSyncMode
	a.folderSyncMode = mode
	if mode == FolderModeNone && old != FolderModeNone {
		return true
	}
	return mode != FolderModeNone && old == FolderModeNone
}

func (a *Account) FolderPushMode() FolderMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.folderPushMode
}

// SetFolderPushMode reports whether the mode changed.
func (a *Account) SetFolderPushMode(mode FolderMode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := a.folderPushMode != mode
	a.folderPushMode = mode
	return changed
}

func (a *Account) FolderTargetMode() FolderMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.folderTargetMode
}

func (a *Account) SetFolderTargetMode(mode FolderMode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.folderTargetMode = mode
}

func (a *Account) SortType() SortType {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sortType
}

func (a *Account) SetSortType(t SortType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sortType = t
}

// SortAscending returns the stored direction for the given sort type,
// seeding the type's default on first use.
func (a *Account) SortAscending(t SortType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	asc, ok := a.sortAscending[t]
	if !ok {
		asc = t.DefaultAscending()
		a.sortAscending[t] = asc
	}
	return asc
}

func (a *Account) SetSortAscending(t SortType, ascending bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sortAscending[t] = ascending
}

func (a *Account) ShowPictures() ShowPictures {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.showPictures
}

func (a *Account) SetShowPictures(v ShowPictures) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showPictures = v
}

func (a *Account) SignatureBeforeQuotedText() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signatureBeforeQuotedText
}

func (a *Account) SetSignatureBeforeQuotedText(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signatureBeforeQuotedText = v
}

func (a *Account) ExpungePolicy() ExpungePolicy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expungePolicy
}

func (a *Account) SetExpungePolicy(p ExpungePolicy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expungePolicy = p
}

func (a *Account) MaxPushFolders() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxPushFolders
}

// SetMaxPushFolders reports whether the limit changed.
func (a *Account) SetMaxPushFolders(n int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := a.maxPushFolders != n
	a.maxPushFolders = n
	return changed
}

func (a *Account) GoToUnreadMessageSearch() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.goToUnreadMessageSearch
}

func (a *Account) SetGoToUnreadMessageSearch(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.goToUnreadMessageSearch = v
}

// UseCompression reports whether traffic over the given network type is
// compressed. Unset network types default to true.
func (a *Account) UseCompression(network NetworkType) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	use, ok := a.compression[network]
	if !ok {
		return true
	}
	return use
}

func (a *Account) SetCompression(network NetworkType, use bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.compression[network] = use
}

func (a *Account) SearchableFolders() Searchable {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.searchableFolders
}

func (a *Account) SetSearchableFolders(s Searchable) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.searchableFolders = s
}

func (a *Account) SubscribedFoldersOnly() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.subscribedFoldersOnly
}

func (a *Account) SetSubscribedFoldersOnly(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribedFoldersOnly = v
}

// MaximumPolledMessageAge returns the sync horizon in days, or -1 for no
// horizon.
func (a *Account) MaximumPolledMessageAge() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maximumPolledMessageAge
}

func (a *Account) SetMaximumPolledMessageAge(days int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maximumPolledMessageAge = days
}

func (a *Account) MaximumAutoDownloadMessageSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maximumAutoDownloadMessageSize
}

func (a *Account) SetMaximumAutoDownloadMessageSize(size int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maximumAutoDownloadMessageSize = size
}

// EarliestPollDate returns the cutoff before which messages are not synced,
// derived from MaximumPolledMessageAge. Ages under 28 days count back from
// local midnight day by day; 28, 56 and 84 days map to one, two and three
// calendar months, 168 to six months, 365 to one year. The second return
// value is false when no horizon is configured.
func (a *Account) EarliestPollDate() (time.Time, bool) {
	age := a.MaximumPolledMessageAge()
	if age < 0 {
		return time.Time{}, false
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if age < 28 {
		return midnight.AddDate(0, 0, -age), true
	}
	switch age {
	case 28:
		return midnight.AddDate(0, -1, 0), true
	case 56:
		return midnight.AddDate(0, -2, 0), true
	case 84:
		return midnight.AddDate(0, -3, 0), true
	case 168:
		return midnight.AddDate(0, -6, 0), true
	case 365:
		return midnight.AddDate(-1, 0, 0), true
	}
	return midnight, true
}

func (a *Account) MessageFormat() MessageFormat {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.messageFormat
}

func (a *Account) SetMessageFormat(f MessageFormat) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messageFormat = f
}

func (a *Account) MessageReadReceipt() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.messageReadReceipt
}

func (a *Account) SetMessageReadReceipt(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messageReadReceipt = v
}

func (a *Account) QuoteStyle() QuoteStyle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quoteStyle
}

func (a *Account) SetQuoteStyle(s QuoteStyle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quoteStyle = s
}

func (a *Account) QuotePrefix() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotePrefix
}

func (a *Account) SetQuotePrefix(prefix string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quotePrefix = prefix
}

func (a *Account) DefaultQuotedTextShown() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotedTextShown
}

func (a *Account) SetDefaultQuotedTextShown(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quotedTextShown = v
}

func (a *Account) ReplyAfterQuote() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replyAfterQuote
}

func (a *Account) SetReplyAfterQuote(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replyAfterQuote = v
}

func (a *Account) StripSignature() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stripSignature
}

func (a *Account) SetStripSignature(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stripSignature = v
}

func (a *Account) SyncRemoteDeletions() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.syncRemoteDeletions
}

func (a *Account) SetSyncRemoteDeletions(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncRemoteDeletions = v
}

// OpenPGPProvider returns the configured crypto provider, or "" if none.
func (a *Account) OpenPGPProvider() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPgpProvider
}

func (a *Account) SetOpenPGPProvider(provider string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.openPgpProvider = provider
}

func (a *Account) IsOpenPGPProviderConfigured() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPgpProvider != ""
}

func (a *Account) OpenPGPKey() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPgpKey
}

func (a *Account) SetOpenPGPKey(keyID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.openPgpKey = keyID
}

func (a *Account) HasOpenPGPKey() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPgpKey != NoOpenPGPKey
}

func (a *Account) OpenPGPHideSignOnly() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPgpHideSignOnly
}

func (a *Account) SetOpenPGPHideSignOnly(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.openPgpHideSignOnly = v
}

func (a *Account) OpenPGPEncryptSubject() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPgpEncryptSubject
}

func (a *Account) SetOpenPGPEncryptSubject(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.openPgpEncryptSubject = v
}

func (a *Account) OpenPGPEncryptAllDrafts() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPgpEncryptAllDrafts
}

func (a *Account) SetOpenPGPEncryptAllDrafts(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.openPgpEncryptAllDrafts = v
}

func (a *Account) AutocryptPreferEncryptMutual() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.autocryptPreferEncryptMutual
}

func (a *Account) SetAutocryptPreferEncryptMutual(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autocryptPreferEncryptMutual = v
}

func (a *Account) MarkMessageAsReadOnView() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.markMessageAsReadOnView
}

func (a *Account) SetMarkMessageAsReadOnView(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markMessageAsReadOnView = v
}

func (a *Account) AlwaysShowCcBcc() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alwaysShowCcBcc
}

func (a *Account) SetAlwaysShowCcBcc(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alwaysShowCcBcc = v
}

func (a *Account) AllowRemoteSearch() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allowRemoteSearch
}

func (a *Account) SetAllowRemoteSearch(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allowRemoteSearch = v
}

// RemoteSearchFullText is disabled for now; the stored preference is kept
// so it survives round trips.
func (a *Account) RemoteSearchFullText() bool {
	return false
}

func (a *Account) SetRemoteSearchFullText(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.remoteSearchFullText = v
}

func (a *Account) RemoteSearchNumResults() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remoteSearchNumResults
}

// SetRemoteSearchNumResults clamps negative values to zero.
func (a *Account) SetRemoteSearchNumResults(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 0 {
		n = 0
	}
	a.remoteSearchNumResults = n
}

func (a *Account) UploadSentMessages() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploadSentMessages
}

func (a *Account) SetUploadSentMessages(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploadSentMessages = v
}

// Enabled reports whether the account is ready for use. Imported accounts
// start disabled when the settings file lacked a server password.
func (a *Account) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

func (a *Account) SetEnabled(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = v
}

func (a *Account) LastSelectedFolder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSelectedFolder
}

func (a *Account) SetLastSelectedFolder(folder string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSelectedFolder = folder
}

func (a *Account) RingNotified() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ringNotified
}

func (a *Account) SetRingNotified(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ringNotified = v
}

// String returns the display name, for logging.
func (a *Account) String() string {
	return a.DisplayName()
}

// accountOptions configure NewAccount defaults that come from the embedding
// application rather than the record itself.
type accountOptions struct {
	storageProviderID          string
	defaultSignature           string
	defaultIdentityDescription string
}

func newAccountOptions(opts ...AccountOption) *accountOptions {
	o := &accountOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AccountOption configures a new account.
type AccountOption func(*accountOptions)

// WithStorageProviderID sets the initial local storage provider.
func WithStorageProviderID(id string) AccountOption {
	return func(o *accountOptions) { o.storageProviderID = id }
}

// WithSignature sets the seeded identity's signature.
func WithSignature(signature string) AccountOption {
	return func(o *accountOptions) { o.defaultSignature = signature }
}

// WithIdentityDescription sets the seeded identity's description.
func WithIdentityDescription(description string) AccountOption {
	return func(o *accountOptions) { o.defaultIdentityDescription = description }
}
