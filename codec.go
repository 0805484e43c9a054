package accounts

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/mailkit/accounts/kv"
)

// Storage layout: every setting lives under "<uuid>.<field>", identity
// settings under "<uuid>.<field>.<index>", and the ordered account list
// under the global registryKey as a comma-delimited string.

const registryKey = "accountUuids"

func accountKey(uuid, field string) string {
	return uuid + "." + field
}

func identityKey(uuid, field string, index int) string {
	return uuid + "." + field + "." + strconv.Itoa(index)
}

// obfuscate Base64-encodes a server URI before storage. This keeps
// credentials out of casual view of the settings dump; it is not a security
// boundary.
func obfuscate(uri string) string {
	return base64.StdEncoding.EncodeToString([]byte(uri))
}

func deobfuscate(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// reader reads typed settings from the store with a sticky error: after the
// first failure every subsequent get returns the zero value, and the load
// reports that first error.
type reader struct {
	ctx   context.Context
	store kv.Store
	uuid  string
	err   error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// raw returns the stored value for the fully-qualified key.
func (r *reader) raw(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok, err := r.store.Get(r.ctx, key)
	if err != nil {
		r.fail(fmt.Errorf("accounts: read %q: %w", key, err))
		return "", false
	}
	return v, ok
}

func (r *reader) getString(field, def string) string {
	v, ok := r.raw(accountKey(r.uuid, field))
	if !ok {
		return def
	}
	return v
}

func (r *reader) getInt(field string, def int) int {
	v, ok := r.raw(accountKey(r.uuid, field))
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(&CorruptValueError{Key: accountKey(r.uuid, field), Value: v, Err: err})
		return def
	}
	return n
}

func (r *reader) getInt64(field string, def int64) int64 {
	v, ok := r.raw(accountKey(r.uuid, field))
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(&CorruptValueError{Key: accountKey(r.uuid, field), Value: v, Err: err})
		return def
	}
	return n
}

func (r *reader) getBool(field string, def bool) bool {
	v, ok := r.raw(accountKey(r.uuid, field))
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(&CorruptValueError{Key: accountKey(r.uuid, field), Value: v, Err: err})
		return def
	}
	return b
}

// getEnum decodes a stored symbolic name through parse, keeping the default
// when the key is absent. An unknown stored literal fails the load.
func getEnum[T ~string](r *reader, field string, def T, parse func(string) (T, error)) T {
	v, ok := r.raw(accountKey(r.uuid, field))
	if !ok {
		return def
	}
	e, err := parse(v)
	if err != nil {
		r.fail(err)
		return def
	}
	return e
}

// loadAccount reconstitutes an account from the store. Absent keys yield
// the documented defaults; unparseable or unknown stored values fail the
// whole load.
func loadAccount(ctx context.Context, store kv.Store, uuid string) (*Account, error) {
	r := &reader{ctx: ctx, store: store, uuid: uuid}
	a := &Account{uuid: uuid}

	storeUri := r.getString("storeUri", "")
	a.localStorageProviderID = r.getString("localStorageProvider", "")
	transportUri := r.getString("transportUri", "")
	a.description = r.getString("description", "")
	a.alwaysBcc = r.getString("alwaysBcc", "")
	a.automaticCheckIntervalMinutes = r.getInt("automaticCheckIntervalMinutes", -1)
	a.idleRefreshMinutes = r.getInt("idleRefreshMinutes", 24)
	a.pushPollOnConnect = r.getBool("pushPollOnConnect", true)
	a.displayCount = r.getInt("displayCount", DefaultVisibleLimit)
	if a.displayCount < 0 {
		a.displayCount = DefaultVisibleLimit
	}
	a.latestOldMessageSeenTime = r.getInt64("latestOldMessageSeenTime", 0)
	a.notifyNewMail = r.getBool("notifyNewMail", false)
	a.folderNotifyNewMailMode = getEnum(r, "folderNotifyNewMailMode", FolderModeAll, ParseFolderMode)
	a.notifySelfNewMail = r.getBool("notifySelfNewMail", true)
	a.notifyContactsMailOnly = r.getBool("notifyContactsMailOnly", false)
	a.notifySync = r.getBool("notifyMailCheck", false)

	policy, err := ParseDeletePolicy(r.getInt("deletePolicy", DeleteNever.Setting()))
	if err != nil {
		r.fail(err)
	}
	a.deletePolicy = policy

	a.inboxFolder = r.getString("inboxFolderName", InboxFolder)
	a.draftsFolder = r.getString("draftsFolderName", "")
	a.sentFolder = r.getString("sentFolderName", "")
	a.trashFolder = r.getString("trashFolderName", "")
	a.archiveFolder = r.getString("archiveFolderName", "")
	a.spamFolder = r.getString("spamFolderName", "")
	a.archiveFolderSelection = getEnum(r, "archiveFolderSelection", SelectionAutomatic, ParseSpecialFolderSelection)
	a.draftsFolderSelection = getEnum(r, "draftsFolderSelection", SelectionAutomatic, ParseSpecialFolderSelection)
	a.sentFolderSelection = getEnum(r, "sentFolderSelection", SelectionAutomatic, ParseSpecialFolderSelection)
	a.spamFolderSelection = getEnum(r, "spamFolderSelection", SelectionAutomatic, ParseSpecialFolderSelection)
	a.trashFolderSelection = getEnum(r, "trashFolderSelection", SelectionAutomatic, ParseSpecialFolderSelection)

	a.expungePolicy = getEnum(r, "expungePolicy", ExpungeImmediately, ParseExpungePolicy)
	a.syncRemoteDeletions = r.getBool("syncRemoteDeletions", true)
	a.maxPushFolders = r.getInt("maxPushFolders", 10)
	a.goToUnreadMessageSearch = r.getBool("goToUnreadMessageSearch", false)
	a.subscribedFoldersOnly = r.getBool("subscribedFoldersOnly", false)
	a.maximumPolledMessageAge = r.getInt("maximumPolledMessageAge", -1)
	a.maximumAutoDownloadMessageSize = r.getInt("maximumAutoDownloadMessageSize", 32768)

	a.messageFormat = getEnum(r, "messageFormat", FormatHTML, ParseMessageFormat)
	a.messageFormatAuto = r.getBool("messageFormatAuto", false)
	if a.messageFormatAuto && a.messageFormat == FormatText {
		a.messageFormat = FormatAuto
	}

	a.messageReadReceipt = r.getBool("messageReadReceipt", false)
	a.quoteStyle = getEnum(r, "quoteStyle", QuotePrefix, ParseQuoteStyle)
	a.quotePrefix = r.getString("quotePrefix", ">")
	a.quotedTextShown = r.getBool("defaultQuotedTextShown", true)
	a.replyAfterQuote = r.getBool("replyAfterQuote", false)
	a.stripSignature = r.getBool("stripSignature", true)

	a.compression = make(map[NetworkType]bool, len(NetworkTypes))
	for _, network := range NetworkTypes {
		a.compression[network] = r.getBool("useCompression."+string(network), true)
	}

	a.autoExpandFolder = r.getString("autoExpandFolderName", InboxFolder)
	a.number = r.getInt("accountNumber", 0)
	a.chipColor = r.getInt("chipColor", FallbackColor)

	a.sortType = getEnum(r, "sortTypeEnum", SortDate, ParseSortType)
	a.sortAscending = map[SortType]bool{
		a.sortType: r.getBool("sortAscending", false),
	}

	a.showPictures = getEnum(r, "showPicturesEnum", ShowPicturesNever, ParseShowPictures)

	a.notification = NotificationSettings{
		Vibrate:        r.getBool("vibrate", false),
		VibratePattern: r.getInt("vibratePattern", 0),
		VibrateTimes:   r.getInt("vibrateTimes", 5),
		RingEnabled:    r.getBool("ring", true),
		Ringtone:       r.getString("ringtone", "content://settings/system/notification_sound"),
		LedEnabled:     r.getBool("led", true),
	}
	a.notification.LedColor = r.getInt("ledColor", a.chipColor)

	a.folderDisplayMode = getEnum(r, "folderDisplayMode", FolderModeNotSecondClass, ParseFolderMode)
	a.folderSyncMode = getEnum(r, "folderSyncMode", FolderModeFirstClass, ParseFolderMode)
	a.folderPushMode = getEnum(r, "folderPushMode", FolderModeFirstClass, ParseFolderMode)
	a.folderTargetMode = getEnum(r, "folderTargetMode", FolderModeNotSecondClass, ParseFolderMode)
	a.searchableFolders = getEnum(r, "searchableFolders", SearchableAll, ParseSearchable)
	a.signatureBeforeQuotedText = r.getBool("signatureBeforeQuotedText", false)

	a.identities = loadIdentities(r)

	a.openPgpProvider = r.getString("openPgpProvider", "")
	a.openPgpKey = r.getInt64("cryptoKey", NoOpenPGPKey)
	a.openPgpHideSignOnly = r.getBool("openPgpHideSignOnly", true)
	a.openPgpEncryptSubject = r.getBool("openPgpEncryptSubject", true)
	a.openPgpEncryptAllDrafts = r.getBool("openPgpEncryptAllDrafts", true)
	a.autocryptPreferEncryptMutual = r.getBool("autocryptMutualMode", false)
	a.allowRemoteSearch = r.getBool("allowRemoteSearch", false)
	a.remoteSearchFullText = r.getBool("remoteSearchFullText", false)
	a.remoteSearchNumResults = r.getInt("remoteSearchNumResults", DefaultRemoteSearchNumResults)
	a.uploadSentMessages = r.getBool("uploadSentMessages", true)

	a.enabled = r.getBool("enabled", true)
	a.markMessageAsReadOnView = r.getBool("markMessageAsReadOnView", true)
	a.alwaysShowCcBcc = r.getBool("alwaysShowCcBcc", false)

	if r.err != nil {
		return nil, r.err
	}

	if storeUri != "" {
		if a.storeUri, err = deobfuscate(storeUri); err != nil {
			return nil, &CorruptValueError{Key: accountKey(uuid, "storeUri"), Value: storeUri, Err: err}
		}
	}
	if transportUri != "" {
		if a.transportUri, err = deobfuscate(transportUri); err != nil {
			return nil, &CorruptValueError{Key: accountKey(uuid, "transportUri"), Value: transportUri, Err: err}
		}
	}

	// Use the email address as the description if none was stored.
	if a.description == "" {
		a.description = a.identities[0].Email
	}

	return a, nil
}

// loadIdentities scans indexed identity keys from 0 until the first index
// with no email key. Settings written before multi-identity support used
// unindexed keys; when no indexed identity exists those are read as a
// single identity whose description defaults to its email address.
func loadIdentities(r *reader) []Identity {
	var identities []Identity
	for index := 0; ; index++ {
		email, ok := r.raw(identityKey(r.uuid, "email", index))
		if !ok {
			break
		}
		id := Identity{Email: email}
		if v, ok := r.raw(identityKey(r.uuid, "name", index)); ok {
			id.Name = v
		}
		id.SignatureUse = true
		if v, ok := r.raw(identityKey(r.uuid, "signatureUse", index)); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				id.SignatureUse = b
			} else {
				r.fail(&CorruptValueError{Key: identityKey(r.uuid, "signatureUse", index), Value: v, Err: err})
			}
		}
		if v, ok := r.raw(identityKey(r.uuid, "signature", index)); ok {
			id.Signature = v
		}
		if v, ok := r.raw(identityKey(r.uuid, "description", index)); ok {
			id.Description = v
		}
		if v, ok := r.raw(identityKey(r.uuid, "replyTo", index)); ok {
			id.ReplyTo = v
		}
		identities = append(identities, id)
	}

	if len(identities) == 0 {
		id := Identity{
			Name:         r.getString("name", ""),
			Email:        r.getString("email", ""),
			SignatureUse: r.getBool("signatureUse", true),
			Signature:    r.getString("signature", ""),
		}
		id.Description = id.Email
		identities = append(identities, id)
	}
	return identities
}

// writer stages typed settings into an edit batch.
type writer struct {
	ed   kv.Editor
	uuid string
}

func (w *writer) putString(field, value string) {
	w.ed.Put(accountKey(w.uuid, field), value)
}

// putOptional removes the key when the value is empty, so an unset folder
// round-trips as absent rather than as an empty name.
func (w *writer) putOptional(field, value string) {
	if value == "" {
		w.ed.Remove(accountKey(w.uuid, field))
		return
	}
	w.ed.Put(accountKey(w.uuid, field), value)
}

func (w *writer) putInt(field string, value int) {
	w.ed.Put(accountKey(w.uuid, field), strconv.Itoa(value))
}

func (w *writer) putInt64(field string, value int64) {
	w.ed.Put(accountKey(w.uuid, field), strconv.FormatInt(value, 10))
}

func (w *writer) putBool(field string, value bool) {
	w.ed.Put(accountKey(w.uuid, field), strconv.FormatBool(value))
}

// stageAccount stages every persisted field of the account into the batch.
// Identity rewriting needs to probe the store for previously saved identity
// indexes, hence the context and store.
func stageAccount(ctx context.Context, store kv.Store, ed kv.Editor, a *Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	w := &writer{ed: ed, uuid: a.uuid}

	w.putString("storeUri", obfuscate(a.storeUri))
	w.putString("localStorageProvider", a.localStorageProviderID)
	w.putString("transportUri", obfuscate(a.transportUri))
	w.putOptional("description", a.description)
	w.putOptional("alwaysBcc", a.alwaysBcc)
	w.putInt("automaticCheckIntervalMinutes", a.automaticCheckIntervalMinutes)
	w.putInt("idleRefreshMinutes", a.idleRefreshMinutes)
	w.putBool("pushPollOnConnect", a.pushPollOnConnect)
	w.putInt("displayCount", a.displayCount)
	w.putInt64("latestOldMessageSeenTime", a.latestOldMessageSeenTime)
	w.putBool("notifyNewMail", a.notifyNewMail)
	w.putString("folderNotifyNewMailMode", string(a.folderNotifyNewMailMode))
	w.putBool("notifySelfNewMail", a.notifySelfNewMail)
	w.putBool("notifyContactsMailOnly", a.notifyContactsMailOnly)
	w.putBool("notifyMailCheck", a.notifySync)
	w.putInt("deletePolicy", a.deletePolicy.Setting())
	w.putString("inboxFolderName", a.inboxFolder)
	w.putOptional("draftsFolderName", a.draftsFolder)
	w.putOptional("sentFolderName", a.sentFolder)
	w.putOptional("trashFolderName", a.trashFolder)
	w.putOptional("archiveFolderName", a.archiveFolder)
	w.putOptional("spamFolderName", a.spamFolder)
	w.putString("archiveFolderSelection", string(a.archiveFolderSelection))
	w.putString("draftsFolderSelection", string(a.draftsFolderSelection))
	w.putString("sentFolderSelection", string(a.sentFolderSelection))
	w.putString("spamFolderSelection", string(a.spamFolderSelection))
	w.putString("trashFolderSelection", string(a.trashFolderSelection))
	w.putString("autoExpandFolderName", a.autoExpandFolder)
	w.putInt("accountNumber", a.number)
	w.putString("sortTypeEnum", string(a.sortType))
	w.putBool("sortAscending", a.sortAscending[a.sortType])
	w.putString("showPicturesEnum", string(a.showPictures))
	w.putString("folderDisplayMode", string(a.folderDisplayMode))
	w.putString("folderSyncMode", string(a.folderSyncMode))
	w.putString("folderPushMode", string(a.folderPushMode))
	w.putString("folderTargetMode", string(a.folderTargetMode))
	w.putBool("signatureBeforeQuotedText", a.signatureBeforeQuotedText)
	w.putString("expungePolicy", string(a.expungePolicy))
	w.putBool("syncRemoteDeletions", a.syncRemoteDeletions)
	w.putInt("maxPushFolders", a.maxPushFolders)
	w.putString("searchableFolders", string(a.searchableFolders))
	w.putInt("chipColor", a.chipColor)
	w.putBool("goToUnreadMessageSearch", a.goToUnreadMessageSearch)
	w.putBool("subscribedFoldersOnly", a.subscribedFoldersOnly)
	w.putInt("maximumPolledMessageAge", a.maximumPolledMessageAge)
	w.putInt("maximumAutoDownloadMessageSize", a.maximumAutoDownloadMessageSize)

	// Storing AUTO as-is would break readers that predate the variant, so
	// it is stored as TEXT plus a flag and reconstructed on load.
	if a.messageFormat == FormatAuto {
		w.putString("messageFormat", string(FormatText))
		a.messageFormatAuto = true
	} else {
		w.putString("messageFormat", string(a.messageFormat))
		a.messageFormatAuto = false
	}
	w.putBool("messageFormatAuto", a.messageFormatAuto)

	w.putBool("messageReadReceipt", a.messageReadReceipt)
	w.putString("quoteStyle", string(a.quoteStyle))
	w.putString("quotePrefix", a.quotePrefix)
	w.putBool("defaultQuotedTextShown", a.quotedTextShown)
	w.putBool("replyAfterQuote", a.replyAfterQuote)
	w.putBool("stripSignature", a.stripSignature)
	w.putInt64("cryptoKey", a.openPgpKey)
	w.putBool("openPgpHideSignOnly", a.openPgpHideSignOnly)
	w.putBool("openPgpEncryptSubject", a.openPgpEncryptSubject)
	w.putBool("openPgpEncryptAllDrafts", a.openPgpEncryptAllDrafts)
	w.putString("openPgpProvider", a.openPgpProvider)
	w.putBool("autocryptMutualMode", a.autocryptPreferEncryptMutual)
	w.putBool("allowRemoteSearch", a.allowRemoteSearch)
	w.putBool("remoteSearchFullText", a.remoteSearchFullText)
	w.putInt("remoteSearchNumResults", a.remoteSearchNumResults)
	w.putBool("enabled", a.enabled)
	w.putBool("markMessageAsReadOnView", a.markMessageAsReadOnView)
	w.putBool("alwaysShowCcBcc", a.alwaysShowCcBcc)

	w.putBool("vibrate", a.notification.Vibrate)
	w.putInt("vibratePattern", a.notification.VibratePattern)
	w.putInt("vibrateTimes", a.notification.VibrateTimes)
	w.putBool("ring", a.notification.RingEnabled)
	w.putString("ringtone", a.notification.Ringtone)
	w.putBool("led", a.notification.LedEnabled)
	w.putInt("ledColor", a.notification.LedColor)

	for _, network := range NetworkTypes {
		if use, ok := a.compression[network]; ok {
			w.putBool("useCompression."+string(network), use)
		}
	}

	if err := stageDeleteIdentities(ctx, store, ed, a.uuid); err != nil {
		return err
	}
	for index, id := range a.identities {
		ed.Put(identityKey(a.uuid, "name", index), id.Name)
		ed.Put(identityKey(a.uuid, "email", index), id.Email)
		ed.Put(identityKey(a.uuid, "signatureUse", index), strconv.FormatBool(id.SignatureUse))
		ed.Put(identityKey(a.uuid, "signature", index), id.Signature)
		ed.Put(identityKey(a.uuid, "description", index), id.Description)
		ed.Put(identityKey(a.uuid, "replyTo", index), id.ReplyTo)
	}
	return nil
}

// stageDeleteIdentities removes every stored identity index, probing the
// store for the email key that marks an index as occupied.
func stageDeleteIdentities(ctx context.Context, store kv.Store, ed kv.Editor, uuid string) error {
	for index := 0; ; index++ {
		_, ok, err := store.Get(ctx, identityKey(uuid, "email", index))
		if err != nil {
			return fmt.Errorf("accounts: scan identities: %w", err)
		}
		if !ok {
			return nil
		}
		ed.Remove(identityKey(uuid, "name", index))
		ed.Remove(identityKey(uuid, "email", index))
		ed.Remove(identityKey(uuid, "signatureUse", index))
		ed.Remove(identityKey(uuid, "signature", index))
		ed.Remove(identityKey(uuid, "description", index))
		ed.Remove(identityKey(uuid, "replyTo", index))
	}
}

// accountFields lists every per-account key removed on delete, including
// legacy keys that old versions wrote. New fields must be added here or
// their keys leak when the account is deleted.
var accountFields = []string{
	"storeUri",
	"transportUri",
	"description",
	"name",
	"email",
	"alwaysBcc",
	"automaticCheckIntervalMinutes",
	"pushPollOnConnect",
	"idleRefreshMinutes",
	"lastAutomaticCheckTime",
	"latestOldMessageSeenTime",
	"notifyNewMail",
	"notifySelfNewMail",
	"notifyContactsMailOnly",
	"folderNotifyNewMailMode",
	"deletePolicy",
	"draftsFolderName",
	"sentFolderName",
	"trashFolderName",
	"archiveFolderName",
	"spamFolderName",
	"archiveFolderSelection",
	"draftsFolderSelection",
	"sentFolderSelection",
	"spamFolderSelection",
	"trashFolderSelection",
	"autoExpandFolderName",
	"accountNumber",
	"vibrate",
	"vibratePattern",
	"vibrateTimes",
	"ring",
	"ringtone",
	"folderDisplayMode",
	"folderSyncMode",
	"folderPushMode",
	"folderTargetMode",
	"signatureBeforeQuotedText",
	"signatureUse",
	"signature",
	"expungePolicy",
	"syncRemoteDeletions",
	"maxPushFolders",
	"searchableFolders",
	"chipColor",
	"led",
	"ledColor",
	"goToUnreadMessageSearch",
	"subscribedFoldersOnly",
	"maximumPolledMessageAge",
	"maximumAutoDownloadMessageSize",
	"messageFormatAuto",
	"quoteStyle",
	"quotePrefix",
	"sortTypeEnum",
	"sortAscending",
	"showPicturesEnum",
	"replyAfterQuote",
	"stripSignature",
	"cryptoApp", // no longer written, cleans up legacy values
	"cryptoAutoSignature",
	"cryptoAutoEncrypt",
	"cryptoKey",
	"cryptoSupportSignOnly",
	"openPgpProvider",
	"openPgpHideSignOnly",
	"openPgpEncryptSubject",
	"openPgpEncryptAllDrafts",
	"autocryptMutualMode",
	"enabled",
	"markMessageAsReadOnView",
	"alwaysShowCcBcc",
	"allowRemoteSearch",
	"remoteSearchFullText",
	"remoteSearchNumResults",
	"uploadSentMessages",
	"defaultQuotedTextShown",
	"displayCount",
	"inboxFolderName",
	"localStorageProvider",
	"messageFormat",
	"messageReadReceipt",
	"notifyMailCheck",
}

// stageDeleteAccount stages removal of every key belonging to the account.
func stageDeleteAccount(ctx context.Context, store kv.Store, ed kv.Editor, uuid string) error {
	for _, field := range accountFields {
		ed.Remove(accountKey(uuid, field))
	}
	for _, network := range NetworkTypes {
		ed.Remove(accountKey(uuid, "useCompression."+string(network)))
	}
	return stageDeleteIdentities(ctx, store, ed, uuid)
}
