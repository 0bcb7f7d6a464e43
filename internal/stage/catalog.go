package stage

// Default returns the built-in progression catalog, used when no external
// catalog file is configured. Pattern lists lean on Traditional Chinese scam
// phrasing because that is what the bot sees in the field.
func Default() *Model {
	m, err := New(defaultStages(), DefaultDecay)
	if err != nil {
		panic("built-in stage catalog invalid: " + err.Error())
	}
	return m
}

func defaultStages() []Definition {
	return []Definition{
		{
			ID:     "trust_building",
			Name:   "建立信任",
			Weight: 0.5,
			Patterns: []Pattern{
				{Text: "交個朋友"},
				{Text: "很有緣"},
				{Text: "認識你很開心"},
				{Text: "加我的賴"},
				{Text: "加LINE好友"},
				{Text: "私訊我"},
				{Text: "跟著老師", Specificity: 1.2},
				{Text: "帶你操作", Specificity: 1.2},
				{Text: "一個人嗎"},
				{Text: "在做什麼工作"},
			},
		},
		{
			ID:     "info_gathering",
			Name:   "套取個資",
			Weight: 0.8,
			Patterns: []Pattern{
				{Text: "身分證", Specificity: 1.2},
				{Text: "身份證", Specificity: 1.2},
				{Text: "驗證碼", Specificity: 1.4},
				{Text: "密碼給", Specificity: 1.4},
				{Text: "提款卡", Specificity: 1.2},
				{Text: "銀行卡號", Specificity: 1.2},
				{Text: "個人資料"},
				{Text: "你的帳號", Specificity: 1.2},
				{Text: "手機號碼給"},
				{Text: "住哪裡"},
			},
		},
		{
			ID:     "financial_ask",
			Name:   "金錢要求",
			Weight: 1.0,
			Patterns: []Pattern{
				{Text: "匯款", Specificity: 1.5},
				{Text: "轉帳", Specificity: 1.5},
				{Text: "转账", Specificity: 1.5},
				{Text: "怎麼轉", Specificity: 1.5},
				{Text: "匯到", Specificity: 1.5},
				{Text: "入金", Specificity: 1.4},
				{Text: "出金", Specificity: 1.4},
				{Text: "保證獲利", Specificity: 1.5},
				{Text: "穩賺不賠", Specificity: 1.5},
				{Text: "投資方案", Specificity: 1.2},
				{Text: "虛擬貨幣", Specificity: 1.2},
				{Text: "USDT", Specificity: 1.4},
				{Text: "手續費", Specificity: 1.2},
				{Text: "解凍金", Specificity: 1.5},
				{Text: "先付", Specificity: 1.2},
				{Text: "儲值", Specificity: 1.2},
			},
		},
	}
}
