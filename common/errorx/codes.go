package errorx

// 错误码规范：
// 0       - 成功
// 1xxx    - 通用错误
// 3xxx    - 活动/报名错误
// 5xxx    - 通知推送错误

const (
	CodeSuccess       = 0    // 成功
	CodeInternalError = 1000 // 内部服务器错误
	CodeInvalidParams = 1001 // 参数校验失败
	CodeForbidden     = 1003 // 禁止访问（非管理员）
	CodeNotFound      = 1004 // 资源不存在
	CodeDBError       = 1008 // 数据库错误

	// 活动 3001-3020
	CodeEventNotFound   = 3001 // 活动不存在
	CodeEventTitleEmpty = 3002 // 活动标题为空
	CodeEventBadDate    = 3003 // 活动日期格式错误
	CodeEventBadLimit   = 3004 // 人数上限必须为正整数
	CodeEventNoChanges  = 3005 // 没有需要更新的字段

	// 报名/RSVP 3101-3120
	CodeAtCapacity        = 3101 // 已达人数上限
	CodeAlreadyRegistered = 3102 // 已报名（幂等结果，非错误）
	CodeBadResponse       = 3103 // 无效的 RSVP 回复值

	// 通知 5001-5010
	CodeBroadcastNoTargets = 5001 // 该活动没有可通知的用户
)

// codeMessages 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:            "success",
	CodeInternalError:      "内部服务器错误",
	CodeInvalidParams:      "参数校验失败",
	CodeForbidden:          "无权执行该操作",
	CodeNotFound:           "资源不存在",
	CodeDBError:            "数据库错误",
	CodeEventNotFound:      "活动不存在",
	CodeEventTitleEmpty:    "活动标题不能为空",
	CodeEventBadDate:       "日期格式错误，请使用 YYYY-MM-DD",
	CodeEventBadLimit:      "人数上限必须为正整数",
	CodeEventNoChanges:     "没有需要更新的字段",
	CodeAtCapacity:         "已达人数上限",
	CodeAlreadyRegistered:  "您已报名该活动",
	CodeBadResponse:        "无效的回复",
	CodeBroadcastNoTargets: "该活动没有可通知的用户",
}

// GetMessage 根据错误码获取默认消息
func GetMessage(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsValidCode 判断是否为有效的业务错误码
func IsValidCode(code int) bool {
	_, exists := codeMessages[code]
	return exists
}
