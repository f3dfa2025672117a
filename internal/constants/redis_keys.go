package constants

import "fmt"

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// SessionModulePrefix 会话模块
	SessionModulePrefix = "session"

	// EntityResume 简历分析数据实体
	EntityResume = "resume"

	// KeySessionSlot 会话槽位 (STRING)
	// 格式: app:session:resume:{slotKey}
	KeySessionSlot = AppPrefix + ":" + SessionModulePrefix + ":" + EntityResume + ":%s"
)

// SessionSlotKey 组合某个会话的槽位键: {sessionID}:resume_analysis_data
func SessionSlotKey(sessionID string) string {
	if sessionID == "" {
		return SessionSlotName
	}
	return fmt.Sprintf("%s:%s", sessionID, SessionSlotName)
}
