package detect

import (
	"fmt"
	"strings"

	"github.com/scamguard/scamguard/internal/stage"
)

// Reply pools per risk level. The local strategy rotates through a pool so
// the same user does not see identical wording turn after turn.
var replyPools = map[stage.Level][]string{
	stage.LevelLow: {
		"我已分析了這段對話，目前沒有發現明顯的詐騙跡象。",
		"看起來是一般的對話內容，暫時沒有可疑之處，仍請留意後續訊息。",
		"這段訊息沒有觸發詐騙特徵，保持平常心即可。",
	},
	stage.LevelMedium: {
		"這段對話出現了一些可疑的話術，建議不要透露個人資料或帳戶資訊。",
		"對方的說法有詐騙前兆，請先透過其他管道確認對方身分。",
		"訊息中有值得警惕的內容，暫時不要依對方指示操作。",
	},
	stage.LevelHigh: {
		"對方的話術符合詐騙進程，請立即停止匯款或提供任何資料，並撥打165反詐騙專線查證。",
		"這段對話具有高度詐騙特徵，千萬不要轉帳或給出驗證碼，建議封鎖對方。",
		"強烈懷疑這是詐騙，請勿進行任何金錢操作，並保留對話紀錄報案。",
	},
}

// pickReply selects from the pool for a level by rotating index, so results
// are reproducible for a fixed sequence of calls.
func pickReply(level stage.Level, seq uint64) string {
	pool := replyPools[level]
	if len(pool) == 0 {
		pool = replyPools[stage.LevelLow]
	}
	return pool[int(seq)%len(pool)]
}

// analysisText templates the brief analysis from the matched stage.
func analysisText(sc stage.Score, confidence float64) string {
	if sc.Stage == nil {
		return "對話內容未命中任何詐騙進程階段。"
	}
	return fmt.Sprintf("對話命中「%s」階段特徵（可信度 %.0f%%）。", sc.Stage.Name, confidence*100)
}

// evidenceText templates the evidence line from matched pattern excerpts.
func evidenceText(sc stage.Score) string {
	if len(sc.Matched) == 0 {
		return ""
	}
	return "命中關鍵詞：" + strings.Join(sc.Matched, "、")
}

// defaultScamExamples seeds the similarity scorer when no example file is
// configured. Short, typical lures drawn from common reported cases.
func defaultScamExamples() []string {
	return []string{
		"老師帶你操作穩賺不賠，跟著投資方案保證獲利",
		"先匯款到這個帳戶，入金之後馬上幫你出金",
		"帳戶被凍結了，需要先付解凍金和手續費",
		"把你的驗證碼給我，幫你解除分期付款設定",
	}
}
