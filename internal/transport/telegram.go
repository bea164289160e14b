package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ==================== Telegram Bot API 客户端 ====================
//
// 只实现本机器人用到的六个方法，长轮询拉取更新。
// 生态里没有可复用的 Bot API SDK，这里直接走 HTTP。

const (
	defaultAPIBase    = "https://api.telegram.org"
	pollTimeoutSec    = 30
	requestTimeout    = 35 * time.Second
	codeForbidden     = 403 // 对端拉黑或从未私聊过机器人
	commandKindPrefix = "/"
)

type TelegramClient struct {
	apiBase string
	token   string
	client  *http.Client
	offset  int64 // getUpdates 游标
}

// NewTelegramClient 创建 Telegram 客户端
func NewTelegramClient(token string) *TelegramClient {
	return NewTelegramClientWithBase(defaultAPIBase, token)
}

// NewTelegramClientWithBase 指定 API 地址创建（测试用）
func NewTelegramClientWithBase(apiBase, token string) *TelegramClient {
	return &TelegramClient{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// ==================== 线格式 ====================

type apiResponse struct {
	Ok          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type wireUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type wireChat struct {
	ID int64 `json:"id"`
}

type wirePhoto struct {
	FileID string `json:"file_id"`
}

type wireMessage struct {
	MessageID int64       `json:"message_id"`
	From      wireUser    `json:"from"`
	Chat      wireChat    `json:"chat"`
	Text      string      `json:"text"`
	Caption   string      `json:"caption"`
	Photo     []wirePhoto `json:"photo"`
}

type wireCallback struct {
	ID      string      `json:"id"`
	From    wireUser    `json:"from"`
	Message wireMessage `json:"message"`
	Data    string      `json:"data"`
}

type wireUpdate struct {
	UpdateID      int64         `json:"update_id"`
	Message       *wireMessage  `json:"message"`
	CallbackQuery *wireCallback `json:"callback_query"`
}

type wireKeyboard struct {
	InlineKeyboard [][]wireButton `json:"inline_keyboard"`
}

type wireButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

func marshalKeyboard(kb Keyboard) *wireKeyboard {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]wireButton, 0, len(kb))
	for _, row := range kb {
		r := make([]wireButton, 0, len(row))
		for _, b := range row {
			r = append(r, wireButton{Text: b.Text, CallbackData: b.Token})
		}
		rows = append(rows, r)
	}
	return &wireKeyboard{InlineKeyboard: rows}
}

// ==================== 调用封装 ====================

func (c *TelegramClient) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "call %s", method)
	}
	defer httpResp.Body.Close()

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return errors.Wrapf(err, "decode %s response", method)
	}
	if !resp.Ok {
		// 403 = 对端不可达（未私聊过/已拉黑），转成结构化错误，
		// 上层绝不做错误文本匹配
		if resp.ErrorCode == codeForbidden {
			return errors.Wrapf(ErrRecipientUnreachable, "%s: %s", method, resp.Description)
		}
		return errors.Errorf("%s failed: code=%d, desc=%s", method, resp.ErrorCode, resp.Description)
	}
	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return errors.Wrapf(err, "decode %s result", method)
		}
	}
	return nil
}

// ==================== Client 实现 ====================

func (c *TelegramClient) SendText(ctx context.Context, chatID int64, body string, kb Keyboard) (MessageRef, error) {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    body,
	}
	if mk := marshalKeyboard(kb); mk != nil {
		payload["reply_markup"] = mk
	}
	var msg wireMessage
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: chatID, MessageID: msg.MessageID}, nil
}

func (c *TelegramClient) SendImage(ctx context.Context, chatID int64, imageFileID, caption string, kb Keyboard) (MessageRef, error) {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"photo":   imageFileID,
		"caption": caption,
	}
	if mk := marshalKeyboard(kb); mk != nil {
		payload["reply_markup"] = mk
	}
	var msg wireMessage
	if err := c.call(ctx, "sendPhoto", payload, &msg); err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: chatID, MessageID: msg.MessageID}, nil
}

func (c *TelegramClient) EditText(ctx context.Context, ref MessageRef, body string, kb Keyboard) error {
	payload := map[string]interface{}{
		"chat_id":    ref.ChatID,
		"message_id": ref.MessageID,
		"text":       body,
	}
	if mk := marshalKeyboard(kb); mk != nil {
		payload["reply_markup"] = mk
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

func (c *TelegramClient) EditImageCaption(ctx context.Context, ref MessageRef, caption string, kb Keyboard) error {
	payload := map[string]interface{}{
		"chat_id":    ref.ChatID,
		"message_id": ref.MessageID,
		"caption":    caption,
	}
	if mk := marshalKeyboard(kb); mk != nil {
		payload["reply_markup"] = mk
	}
	return c.call(ctx, "editMessageCaption", payload, nil)
}

// Ping 发送输入状态（sendChatAction），对方看不到内容；
// 403 会经 call 转成 ErrRecipientUnreachable
func (c *TelegramClient) Ping(ctx context.Context, chatID int64) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"action":  "typing",
	}
	return c.call(ctx, "sendChatAction", payload, nil)
}

func (c *TelegramClient) Acknowledge(ctx context.Context, callbackID, toast string) error {
	payload := map[string]interface{}{
		"callback_query_id": callbackID,
	}
	if toast != "" {
		payload["text"] = toast
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// ==================== UpdateSource 实现 ====================

// Poll 长轮询拉取一批更新并推进游标
func (c *TelegramClient) Poll(ctx context.Context) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":          c.offset,
		"timeout":         pollTimeoutSec,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var wire []wireUpdate
	if err := c.call(ctx, "getUpdates", payload, &wire); err != nil {
		return nil, err
	}

	updates := make([]Update, 0, len(wire))
	for _, wu := range wire {
		if wu.UpdateID >= c.offset {
			c.offset = wu.UpdateID + 1
		}
		if u, ok := convertUpdate(wu); ok {
			updates = append(updates, u)
		}
	}
	return updates, nil
}

func convertUpdate(wu wireUpdate) (Update, bool) {
	switch {
	case wu.CallbackQuery != nil:
		cb := wu.CallbackQuery
		return Update{
			Kind:          UpdateCallback,
			ActorID:       cb.From.ID,
			ActorHandle:   cb.From.Username,
			ActorName:     cb.From.FirstName,
			ChatID:        cb.Message.Chat.ID,
			CallbackID:    cb.ID,
			CallbackToken: cb.Data,
			MessageRef: MessageRef{
				ChatID:    cb.Message.Chat.ID,
				MessageID: cb.Message.MessageID,
			},
			HasImage: len(cb.Message.Photo) > 0,
		}, true

	case wu.Message != nil:
		msg := wu.Message
		u := Update{
			ActorID:     msg.From.ID,
			ActorHandle: msg.From.Username,
			ActorName:   msg.From.FirstName,
			ChatID:      msg.Chat.ID,
		}
		switch {
		case len(msg.Photo) > 0:
			u.Kind = UpdateImage
			// 取分辨率最高的一档
			u.ImageFileID = msg.Photo[len(msg.Photo)-1].FileID
			u.Text = msg.Caption
		case strings.HasPrefix(msg.Text, commandKindPrefix):
			u.Kind = UpdateCommand
			cmd, args, _ := strings.Cut(msg.Text, " ")
			u.Command = strings.TrimPrefix(cmd, commandKindPrefix)
			// /cmd@botname 形式去掉 @ 后缀
			if at := strings.Index(u.Command, "@"); at >= 0 {
				u.Command = u.Command[:at]
			}
			u.Args = strings.TrimSpace(args)
		case msg.Text != "":
			u.Kind = UpdateText
			u.Text = msg.Text
		default:
			return Update{}, false
		}
		return u, true
	}
	return Update{}, false
}

var _ Client = (*TelegramClient)(nil)
var _ UpdateSource = (*TelegramClient)(nil)
