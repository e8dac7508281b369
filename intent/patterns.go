package intent

// actionPattern holds the keyword lists for one action category. English and
// Korean keywords share a base confidence; a match scores
// base + min(0.01 * len(keyword), 0.1) so longer, more specific keywords win
// ties over short generic ones.
type actionPattern struct {
	action   Action
	base     float64
	keywords []string
}

// actionPatterns is ordered; earlier entries win score ties.
var actionPatterns = []actionPattern{
	{
		action:   ActionCreate,
		base:     0.85,
		keywords: []string{"create", "add", "make", "new", "write", "build", "generate", "생성", "만들", "추가", "작성"},
	},
	{
		action:   ActionRead,
		base:     0.8,
		keywords: []string{"read", "show", "view", "open", "display", "get", "보여", "읽어", "열어", "조회"},
	},
	{
		action:   ActionUpdate,
		base:     0.85,
		keywords: []string{"update", "edit", "change", "modify", "rename", "fix", "수정", "변경", "바꿔", "고쳐"},
	},
	{
		action:   ActionDelete,
		base:     0.85,
		keywords: []string{"delete", "remove", "drop", "clear", "삭제", "지워", "제거"},
	},
	{
		action:   ActionSearch,
		base:     0.8,
		keywords: []string{"search", "find", "look for", "locate", "검색", "찾아", "찾기"},
	},
	{
		action:   ActionAnalyze,
		base:     0.8,
		keywords: []string{"analyze", "analyse", "review", "inspect", "investigate", "debug", "분석", "조사", "검토"},
	},
	{
		action:   ActionSummarize,
		base:     0.8,
		keywords: []string{"summarize", "summarise", "summary", "recap", "tldr", "요약", "정리"},
	},
	{
		action:   ActionSchedule,
		base:     0.8,
		keywords: []string{"schedule", "plan", "book", "calendar", "remind me", "일정", "예약", "스케줄"},
	},
	{
		action:   ActionNotify,
		base:     0.8,
		keywords: []string{"notify", "alert", "send", "message", "ping", "알림", "알려", "보내"},
	},
}

// targetKeywords maps surface keywords (English and Korean) to a canonical
// target label.
var targetKeywords = []struct {
	keyword string
	target  string
}{
	{"task", "task"}, {"todo", "task"}, {"작업", "task"}, {"할일", "task"},
	{"file", "file"}, {"document", "document"}, {"doc", "document"}, {"파일", "file"}, {"문서", "document"},
	{"issue", "issue"}, {"ticket", "issue"}, {"bug", "issue"}, {"이슈", "issue"}, {"버그", "issue"},
	{"invoice", "invoice"}, {"청구서", "invoice"},
	{"meeting", "meeting"}, {"event", "event"}, {"회의", "meeting"}, {"미팅", "meeting"},
	{"report", "report"}, {"보고서", "report"}, {"리포트", "report"},
	{"project", "project"}, {"프로젝트", "project"},
	{"message", "message"}, {"email", "email"}, {"메일", "email"}, {"메시지", "message"},
	{"page", "page"}, {"페이지", "page"},
	{"user", "user"}, {"member", "user"}, {"사용자", "user"}, {"멤버", "user"},
	{"code", "code"}, {"function", "function"}, {"test", "test"}, {"코드", "code"}, {"함수", "function"}, {"테스트", "test"},
	{"channel", "channel"}, {"채널", "channel"},
	{"workflow", "workflow"}, {"워크플로우", "workflow"},
}

// koreanParticles are common object/topic particles glued onto tokens.
// The follower-token target guess strips them so "작업을" yields "작업".
var koreanParticles = []string{"을", "를", "이", "가", "은", "는", "으로", "로", "에"}
