package model

// ConversationState 是会话的线性状态机取值
// idle → chatting → readyToJudge → judging → done
// error 可从 chatting / judging 进入，且允许重试（非终态）
type ConversationState string

const (
	StateIdle         ConversationState = "idle"
	StateChatting     ConversationState = "chatting"
	StateReadyToJudge ConversationState = "readyToJudge"
	StateJudging      ConversationState = "judging"
	StateDone         ConversationState = "done"
	StateError        ConversationState = "error"
)

// VerdictState 是判决获取的单次状态：idle → loading → success / error
type VerdictState string

const (
	VerdictIdle    VerdictState = "idle"
	VerdictLoading VerdictState = "loading"
	VerdictSuccess VerdictState = "success"
	VerdictError   VerdictState = "error"
)
