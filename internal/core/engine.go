package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/multibot-dev/multibot/internal/bot"
	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/internal/store"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// Engine routes inbound platform events to registered handlers.
//
// Every adapter feeds events into a single buffered channel; each event is
// dispatched on its own goroutine. Handlers never see raw platform payloads,
// only the unified Message model materialized through the cache.
type Engine struct {
	config    *Config
	registry  *Registry
	resolver  *Resolver
	cache     *MessageCache
	store     store.Store
	penalties *PenaltyScheduler

	mu       sync.RWMutex
	adapters map[models.Platform]bot.Adapter

	events chan bot.InboundEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine with the built-in moderation handlers
// registered. Adapters are attached afterwards with RegisterAdapter.
func NewEngine(config *Config, st store.Store) *Engine {
	e := &Engine{
		config:    config,
		registry:  NewRegistry(config.Matching.MinScore),
		resolver:  NewResolver(),
		cache:     NewMessageCache(config.CacheTTL(), st),
		store:     st,
		penalties: NewPenaltyScheduler(st, config.PenaltyDeferThreshold()),
		adapters:  make(map[models.Platform]bot.Adapter),
		events:    make(chan bot.InboundEvent, constants.EventChannelBufferSize),
	}
	e.resolver.MinimumScoreToMatch = config.Matching.ScoreThreshold
	e.registerBuiltins()
	return e
}

// RegisterAdapter attaches a platform adapter. Call before Run.
func (e *Engine) RegisterAdapter(adapter bot.Adapter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adapters[adapter.Platform()] = adapter
}

// Register adds a text handler. Keywords may be a phrase string, a flat
// word list, or explicit groups; see NormalizeKeywords.
func (e *Engine) Register(name string, handler Handler, keywords any, opts *CallbackOptions) error {
	return e.registry.Register(name, handler, keywords, opts)
}

// RegisterButton adds a handler for button presses correlated by key.
func (e *Engine) RegisterButton(name string, handler Handler, key string) error {
	return e.registry.RegisterButton(name, handler, key)
}

// Run starts every adapter and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.mu.RLock()
	adapters := make([]bot.Adapter, 0, len(e.adapters))
	for _, adapter := range e.adapters {
		adapters = append(adapters, adapter)
	}
	e.mu.RUnlock()

	if len(adapters) == 0 {
		return fmt.Errorf("no adapters registered")
	}

	for _, adapter := range adapters {
		if err := adapter.Start(e.HandleEvent); err != nil {
			return fmt.Errorf("failed to start %s adapter: %w", adapter.Platform(), err)
		}
		logger.WithFields(logrus.Fields{
			"platform": adapter.Platform(),
		}).Info("adapter-started")
	}

	e.startSweeps()

	e.wg.Add(1)
	go e.eventLoop()

	<-e.ctx.Done()
	e.shutdown(adapters)
	return nil
}

// HandleEvent enqueues an inbound event for dispatch. Events arriving
// while the buffer is full are dropped with a warning rather than
// blocking the adapter's receive loop.
func (e *Engine) HandleEvent(event bot.InboundEvent) {
	select {
	case e.events <- event:
	default:
		logger.WithFields(logrus.Fields{
			"platform": event.Platform(),
		}).Warn("event-channel-full-dropping-event")
	}
}

// Stop cancels the run loop.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) eventLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case event := <-e.events:
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						logger.WithFields(logrus.Fields{
							"platform": event.Platform(),
							"panic":    r,
						}).Error("panic-in-event-dispatch")
					}
				}()
				e.dispatch(e.ctx, event)
			}()
		}
	}
}

func (e *Engine) shutdown(adapters []bot.Adapter) {
	for _, adapter := range adapters {
		if err := adapter.Stop(); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"platform": adapter.Platform(),
			}).Error("failed-to-stop-adapter")
			continue
		}
		logger.WithFields(logrus.Fields{
			"platform": adapter.Platform(),
		}).Info("adapter-stopped")
	}
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("timed-out-waiting-for-in-flight-dispatches")
	}
}

func (e *Engine) startSweeps() {
	e.sweep("cache-eviction", e.config.CacheSweepInterval(), func(ctx context.Context) {
		e.cache.Evict(time.Now().UTC())
	})
	e.sweep("old-record-cleanup", constants.OldRecordSweepInterval, e.cleanOldMessages)
	e.sweep("penalty-expiry", e.config.PenaltySweepInterval(), func(ctx context.Context) {
		e.mu.RLock()
		defer e.mu.RUnlock()
		for platform, adapter := range e.adapters {
			if err := e.penalties.CheckOld(ctx, models.PenaltyBan, platform, adapter.Unban); err != nil {
				logger.WithError(err).Error("failed-to-sweep-expired-bans")
			}
			if err := e.penalties.CheckOld(ctx, models.PenaltyMute, platform, adapter.Unmute); err != nil {
				logger.WithError(err).Error("failed-to-sweep-expired-mutes")
			}
		}
	})
}

func (e *Engine) sweep(name string, interval time.Duration, fn func(context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"sweep": name,
					"panic": r,
				}).Error("panic-in-sweep")
			}
		}()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				fn(e.ctx)
			}
		}
	}()
}

// docDate extracts a message document's timestamp, zero when absent.
func docDate(doc store.Document) time.Time {
	raw, _ := doc["date"].(string)
	date, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return date
}

// cleanOldMessages drops persisted messages older than the expiration
// window. The store only answers equality queries, so the sweep scans the
// collection and filters on the date field.
func (e *Engine) cleanOldMessages(ctx context.Context) {
	docs, err := e.store.Find(ctx, messagesCollection, store.Document{})
	if err != nil {
		logger.WithError(err).Error("failed-to-scan-old-messages")
		return
	}
	cutoff := time.Now().UTC().Add(-constants.MessageExpirationTime)
	removed := 0
	for _, doc := range docs {
		raw, _ := doc["date"].(string)
		date, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil || date.After(cutoff) {
			continue
		}
		key := store.Document{
			"platform": doc["platform"],
			"id":       doc["id"],
			"chat_id":  doc["chat_id"],
		}
		if err := e.store.Delete(ctx, messagesCollection, key); err != nil {
			logger.WithError(err).Error("failed-to-delete-old-message")
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.WithFields(logrus.Fields{"count": removed}).Info("old-messages-removed")
	}
}

// dispatch materializes the event into a Message and routes it.
func (e *Engine) dispatch(ctx context.Context, event bot.InboundEvent) {
	msg, err := e.cache.GetOrCreate(ctx, event)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"platform": event.Platform(),
		}).Error("failed-to-build-message-from-event")
		return
	}

	if event.IsButtonPress() {
		// A press on a grid from before a restart has no live key; drop it.
		if msg.ButtonsInfo != nil {
			e.dispatchButton(ctx, msg)
		}
		return
	}

	// Own outbound messages echo back on some platforms.
	if me := e.me(msg.Platform); me != nil && msg.Author != nil && msg.Author.ID == me.ID {
		return
	}

	callbacks, err := e.resolver.Resolve(msg.Text, e.registry.Callbacks())
	if err != nil {
		e.manageError(ctx, err, msg)
		return
	}

	for _, callback := range callbacks {
		if err := e.invoke(ctx, callback, msg); err != nil {
			e.manageError(ctx, err, msg)
		}
	}
}

func (e *Engine) dispatchButton(ctx context.Context, msg *models.Message) {
	for _, callback := range e.registry.ButtonCallbacks(msg.ButtonsInfo.Key) {
		if err := e.invoke(ctx, callback, msg); err != nil {
			e.manageError(ctx, err, msg)
		}
	}
}

func (e *Engine) invoke(ctx context.Context, callback *RegisteredCallback, msg *models.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %s panicked: %v", callback.Name, r)
		}
	}()
	logger.WithFields(logrus.Fields{
		"handler":  callback.Name,
		"platform": msg.Platform,
		"chat":     msg.ChatID(),
	}).Debug("invoking-handler")
	return callback.Invoke(ctx, msg)
}

// manageError classifies a dispatch error and reports it to the chat.
func (e *Engine) manageError(ctx context.Context, err error, msg *models.Message) {
	log := logger.WithError(err).WithFields(logrus.Fields{
		"platform": msg.Platform,
		"chat":     msg.ChatID(),
	})

	var ambiguity *AmbiguityError
	var limit *LimitError
	var notFound *NotFoundError
	var disconnected *UserDisconnectedError
	var send *SendError

	switch {
	case errors.As(err, &ambiguity):
		log.Info("ambiguous-message-ignored")
		if e.config.Matching.StrictAmbiguity {
			e.sendError(ctx, msg, "I'm not sure what you meant, could you be more specific?")
		}
	case errors.As(err, &limit):
		log.Warn("request-over-limit")
		e.sendError(ctx, msg, err.Error())
	case errors.As(err, &notFound), errors.As(err, &disconnected):
		log.Warn("request-failed")
		e.sendError(ctx, msg, err.Error())
	case errors.As(err, &send):
		log.Error("failed-to-send-message-to-chat")
	default:
		log.Error("unhandled-error-in-handler")
		e.sendError(ctx, msg, exceptionReport(err))
	}
}

// exceptionReport builds a short apology with a truncated error detail.
func exceptionReport(err error) string {
	lines := strings.Split(err.Error(), "\n")
	if len(lines) > constants.ExceptionReportMaxLines {
		lines = lines[:constants.ExceptionReportMaxLines]
	}
	phrase := constants.ExceptionPhrases[rand.Intn(len(constants.ExceptionPhrases))]
	return phrase + "\n\n" + strings.Join(lines, "\n")
}

// sendError replies with an error notice that deletes itself shortly after.
func (e *Engine) sendError(ctx context.Context, msg *models.Message, text string) {
	sent, err := e.Send(ctx, bot.SendRequest{
		Text:    text,
		Chat:    msg.Chat,
		ReplyTo: msg,
	})
	if err != nil {
		logger.WithError(err).Error("failed-to-send-error-notice")
		return
	}
	e.deleteAfter(sent, constants.ErrorMessageDuration)
}

// deleteAfter removes msg from the chat once the delay elapses.
func (e *Engine) deleteAfter(msg *models.Message, delay time.Duration) {
	time.AfterFunc(delay, func() {
		adapter := e.adapter(msg.Platform)
		if adapter == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := adapter.DeleteMessage(ctx, msg.ChatID(), msg.ID); err != nil {
			logger.WithError(err).Debug("failed-to-delete-message")
		}
	})
}

// Send delivers a message through the chat's platform adapter, then
// records the sent message in the cache and the store.
func (e *Engine) Send(ctx context.Context, req bot.SendRequest) (*models.Message, error) {
	chat := req.Chat
	if chat == nil && req.ReplyTo != nil {
		chat = req.ReplyTo.Chat
	}
	if chat == nil && req.Edit != nil {
		chat = req.Edit.Chat
	}
	if chat == nil {
		return nil, fmt.Errorf("send request without destination")
	}
	adapter := e.adapter(chat.Platform)
	if adapter == nil {
		return nil, &SendError{Platform: chat.Platform.String(), Cause: fmt.Errorf("no adapter registered")}
	}
	sent, err := adapter.Send(ctx, req)
	if err != nil {
		return nil, &SendError{Platform: chat.Platform.String(), Cause: err}
	}
	e.cache.Put(sent)
	if req.Edit != nil {
		e.cache.Touch(req.Edit)
	}
	key := store.Document{
		"platform": sent.Platform.String(),
		"id":       sent.ID,
		"chat_id":  sent.ChatID(),
	}
	if err := e.store.Save(ctx, messagesCollection, key, sent.Document()); err != nil {
		logger.WithError(err).Error("failed-to-persist-sent-message")
	}
	return sent, nil
}

// Reply sends text as a reply to msg.
func (e *Engine) Reply(ctx context.Context, msg *models.Message, text string) (*models.Message, error) {
	return e.Send(ctx, bot.SendRequest{Text: text, Chat: msg.Chat, ReplyTo: msg})
}

// SendNegative replies with a stock refusal phrase and a sad emoji.
func (e *Engine) SendNegative(ctx context.Context, msg *models.Message) {
	phrase := constants.NoPhrases[rand.Intn(len(constants.NoPhrases))]
	emoji := constants.SadEmojis[rand.Intn(len(constants.SadEmojis))]
	if _, err := e.Reply(ctx, msg, phrase+" "+emoji); err != nil {
		logger.WithError(err).Error("failed-to-send-negative-phrase")
	}
}

// SendInterrogation replies with a stock confusion phrase.
func (e *Engine) SendInterrogation(ctx context.Context, msg *models.Message) {
	phrase := constants.InterrogationPhrases[rand.Intn(len(constants.InterrogationPhrases))]
	if _, err := e.Reply(ctx, msg, phrase); err != nil {
		logger.WithError(err).Error("failed-to-send-interrogation-phrase")
	}
}

// SendOutOfService replies with a stock out-of-service apology.
func (e *Engine) SendOutOfService(ctx context.Context, msg *models.Message) {
	phrase := constants.OutOfServicePhrases[rand.Intn(len(constants.OutOfServicePhrases))]
	if _, err := e.Reply(ctx, msg, phrase); err != nil {
		logger.WithError(err).Error("failed-to-send-out-of-service-phrase")
	}
}

// acceptButtonEvent dismisses a pending button interaction so the
// platform stops showing a spinner. No-op for plain messages.
func (e *Engine) acceptButtonEvent(ctx context.Context, msg *models.Message) {
	if msg.ButtonsInfo == nil {
		return
	}
	adapter := e.adapter(msg.Platform)
	if adapter == nil {
		return
	}
	if err := adapter.AcceptButtonEvent(ctx, msg); err != nil {
		logger.WithError(err).Debug("failed-to-accept-button-event")
	}
}

// IsBotMentioned reports whether msg addresses the bot: an explicit
// mention, an @name in the text, or a reply to one of the bot's messages.
func (e *Engine) IsBotMentioned(msg *models.Message) bool {
	me := e.me(msg.Platform)
	if me == nil {
		return false
	}
	for _, mention := range msg.Mentions {
		if mention.ID == me.ID {
			return true
		}
	}
	if me.Name != "" && strings.Contains(strings.ToLower(msg.Text), "@"+strings.ToLower(me.Name)) {
		return true
	}
	if msg.RepliedMessage != nil && msg.RepliedMessage.Author != nil && msg.RepliedMessage.Author.ID == me.ID {
		return true
	}
	return false
}

// Clear deletes the chat's n most recent recorded messages. History comes
// from the store, so only messages the engine has seen can be cleared;
// platforms without a history API (Telegram) work the same way.
func (e *Engine) Clear(ctx context.Context, platform models.Platform, chatID string, n int) error {
	if n > constants.DeleteMessageLimit {
		return &LimitError{Requested: n, Limit: constants.DeleteMessageLimit}
	}
	adapter := e.adapter(platform)
	if adapter == nil {
		return &NotFoundError{What: "adapter for " + platform.String()}
	}
	docs, err := e.store.Find(ctx, messagesCollection, store.Document{
		"platform": platform.String(),
		"chat_id":  chatID,
	})
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docDate(docs[i]).After(docDate(docs[j]))
	})
	if len(docs) > n {
		docs = docs[:n]
	}
	for _, doc := range docs {
		id, _ := doc["id"].(string)
		if err := adapter.DeleteMessage(ctx, chatID, id); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"platform": platform,
				"chat":     chatID,
				"message":  id,
			}).Warn("failed-to-clear-message")
			continue
		}
		if err := e.store.Delete(ctx, messagesCollection, store.Document{
			"platform": platform.String(),
			"id":       id,
			"chat_id":  chatID,
		}); err != nil {
			logger.WithError(err).Error("failed-to-forget-cleared-message")
		}
	}
	return nil
}

// GroupIDByName resolves a group id from its name using the messages the
// engine has recorded from that group.
func (e *Engine) GroupIDByName(ctx context.Context, platform models.Platform, groupName string) (string, error) {
	doc, err := e.store.FindOne(ctx, messagesCollection, store.Document{
		"platform":   platform.String(),
		"group_name": groupName,
	})
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", &NotFoundError{What: "group " + groupName}
	}
	id, _ := doc["group_id"].(string)
	return id, nil
}

// UserIDByName resolves a user id from its name, same mechanism.
func (e *Engine) UserIDByName(ctx context.Context, platform models.Platform, userName string) (string, error) {
	doc, err := e.store.FindOne(ctx, messagesCollection, store.Document{
		"platform":    platform.String(),
		"author_name": userName,
	})
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", &NotFoundError{What: "user " + userName}
	}
	id, _ := doc["author_id"].(string)
	return id, nil
}

// FindUsersByRoles returns the group members carrying at least one of the
// named roles. An empty roleNames returns every member.
func (e *Engine) FindUsersByRoles(ctx context.Context, platform models.Platform, groupID string, roleNames []string) ([]*models.User, error) {
	adapter := e.adapter(platform)
	if adapter == nil {
		return nil, &NotFoundError{What: "adapter for " + platform.String()}
	}
	users, err := adapter.GroupUsers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(roleNames) == 0 {
		return users, nil
	}
	roles, err := adapter.GroupRoles(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var wanted []string
	for _, role := range roles {
		for _, name := range roleNames {
			if role.Name == name {
				wanted = append(wanted, role.ID)
			}
		}
	}
	var matched []*models.User
	for _, user := range users {
		for _, roleID := range wanted {
			if user.HasRole(roleID) {
				matched = append(matched, user)
				break
			}
		}
	}
	return matched, nil
}

// Ban bans the user in the group, for duration or indefinitely when zero.
func (e *Engine) Ban(ctx context.Context, platform models.Platform, userID, groupID string, duration time.Duration) error {
	adapter := e.adapter(platform)
	if adapter == nil {
		return &NotFoundError{What: "adapter for " + platform.String()}
	}
	penalty := models.NewPenalty(models.PenaltyBan, platform, userID, groupID, duration)
	return e.penalties.Apply(ctx, penalty, adapter.Ban, adapter.Unban)
}

// Unban lifts a ban and removes its record.
func (e *Engine) Unban(ctx context.Context, platform models.Platform, userID, groupID string) error {
	adapter := e.adapter(platform)
	if adapter == nil {
		return &NotFoundError{What: "adapter for " + platform.String()}
	}
	penalty := models.NewPenalty(models.PenaltyBan, platform, userID, groupID, 0)
	return e.penalties.Remove(ctx, penalty, adapter.Unban)
}

// Mute mutes the user in the group, for duration or indefinitely when zero.
func (e *Engine) Mute(ctx context.Context, platform models.Platform, userID, groupID string, duration time.Duration) error {
	adapter := e.adapter(platform)
	if adapter == nil {
		return &NotFoundError{What: "adapter for " + platform.String()}
	}
	penalty := models.NewPenalty(models.PenaltyMute, platform, userID, groupID, duration)
	return e.penalties.Apply(ctx, penalty, adapter.Mute, adapter.Unmute)
}

// Unmute lifts a mute and removes its record.
func (e *Engine) Unmute(ctx context.Context, platform models.Platform, userID, groupID string) error {
	adapter := e.adapter(platform)
	if adapter == nil {
		return &NotFoundError{What: "adapter for " + platform.String()}
	}
	penalty := models.NewPenalty(models.PenaltyMute, platform, userID, groupID, 0)
	return e.penalties.Remove(ctx, penalty, adapter.Unmute)
}

func (e *Engine) adapter(platform models.Platform) bot.Adapter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.adapters[platform]
}

func (e *Engine) me(platform models.Platform) *models.User {
	adapter := e.adapter(platform)
	if adapter == nil {
		return nil
	}
	return adapter.Me()
}

// Cache exposes the engine's message cache, mainly for handlers that
// need to look up referenced messages.
func (e *Engine) Cache() *MessageCache {
	return e.cache
}

// Store exposes the engine's document store.
func (e *Engine) Store() store.Store {
	return e.store
}
