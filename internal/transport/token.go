package transport

import (
	"fmt"
	"strconv"
	"strings"

	"event-bot/internal/model"
)

// ==================== 回调 token 编解码 ====================
//
// token 是本系统自己组装、自己解析的不透明字符串，平台只负责透传。
// 格式：
//   register_<eventID>           报名
//   rsvp_<eventID>_<response>    RSVP 回复（attending/declining）
//   pick_<menu>_<eventID>        管理端活动选择（notify/stats/users/edit/card）
//   menu_<action>                管理端菜单动作

const (
	prefixRegister = "register_"
	prefixRsvp     = "rsvp_"
	prefixPick     = "pick_"
	prefixMenu     = "menu_"
)

// RegisterToken 组装报名按钮 token
func RegisterToken(eventID uint64) string {
	return fmt.Sprintf("%s%d", prefixRegister, eventID)
}

// RsvpToken 组装 RSVP 按钮 token
func RsvpToken(eventID uint64, response string) string {
	return fmt.Sprintf("%s%d_%s", prefixRsvp, eventID, response)
}

// PickToken 组装管理端活动选择 token
func PickToken(menu string, eventID uint64) string {
	return fmt.Sprintf("%s%s_%d", prefixPick, menu, eventID)
}

// MenuToken 组装管理端菜单动作 token
func MenuToken(action string) string {
	return prefixMenu + action
}

// ParseRegisterToken 解析报名 token
func ParseRegisterToken(token string) (eventID uint64, ok bool) {
	rest, found := strings.CutPrefix(token, prefixRegister)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ParseRsvpToken 解析 RSVP token，回复值非法视为 token 非法
func ParseRsvpToken(token string) (eventID uint64, response string, ok bool) {
	rest, found := strings.CutPrefix(token, prefixRsvp)
	if !found {
		return 0, "", false
	}
	idStr, resp, found := strings.Cut(rest, "_")
	if !found {
		return 0, "", false
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	if !model.IsValidResponse(resp) {
		return 0, "", false
	}
	return id, resp, true
}

// ParsePickToken 解析管理端活动选择 token
func ParsePickToken(token string) (menu string, eventID uint64, ok bool) {
	rest, found := strings.CutPrefix(token, prefixPick)
	if !found {
		return "", 0, false
	}
	menu, idStr, found := strings.Cut(rest, "_")
	if !found || menu == "" {
		return "", 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return "", 0, false
	}
	return menu, id, true
}

// ParseMenuToken 解析管理端菜单动作 token
func ParseMenuToken(token string) (action string, ok bool) {
	action, found := strings.CutPrefix(token, prefixMenu)
	if !found || action == "" {
		return "", false
	}
	return action, true
}
