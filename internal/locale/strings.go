package locale

import "fmt"

// Key identifies a localized UI string
type Key string

const (
	InputPlaceholder Key = "input_placeholder"
	LoadingIndex     Key = "loading_index"
	IndexLoadError   Key = "index_load_error"
	TurnError        Key = "turn_error"
	ResetDone        Key = "reset_done"
	SourceLabel      Key = "source_label"
	PageLabel        Key = "page_label"
	VoiceInput       Key = "voice_input"
	NoHistory        Key = "no_history"
	NewConversation  Key = "new_conversation"
	HistoryTitle     Key = "history_title"
	Untitled         Key = "untitled"
)

var catalog = map[Language]map[Key]string{
	English: {
		InputPlaceholder: "Type your question here...",
		LoadingIndex:     "Loading embeddings... Please wait.",
		IndexLoadError:   "Error loading embeddings: %v",
		TurnError:        "Sorry, something went wrong while answering: %v",
		ResetDone:        "Chat has been reset successfully.",
		SourceLabel:      "Source",
		PageLabel:        "Page",
		VoiceInput:       "Voice Input",
		NoHistory:        "No conversation history yet",
		NewConversation:  "Started a new conversation",
		HistoryTitle:     "Chat History",
		Untitled:         "New chat",
	},
	Arabic: {
		InputPlaceholder: "اكتب سؤالك هنا...",
		LoadingIndex:     "جارٍ تحميل التضميدات... الرجاء الانتظار.",
		IndexLoadError:   "حدث خطأ أثناء تحميل التضميدات: %v",
		TurnError:        "عذرًا، حدث خطأ أثناء الإجابة: %v",
		ResetDone:        "تمت إعادة تعيين الدردشة بنجاح.",
		SourceLabel:      "المصدر",
		PageLabel:        "صفحة رقم",
		VoiceInput:       "الإدخال الصوتي",
		NoHistory:        "لا توجد محادثات سابقة بعد",
		NewConversation:  "تم بدء محادثة جديدة",
		HistoryTitle:     "سجل المحادثات",
		Untitled:         "محادثة جديدة",
	},
}

// T returns the localized string for key, formatted with args when given.
// Unknown languages fall back to English.
func (l Language) T(key Key, args ...any) string {
	strs, ok := catalog[l]
	if !ok {
		strs = catalog[English]
	}
	s, ok := strs[key]
	if !ok {
		s = string(key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(s, args...)
	}
	return s
}
