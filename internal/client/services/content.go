package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
)

// GenerateContent writes the diary text for an analysed photo.
func GenerateContent(a models.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("今天拍了一张照片。")

	if a.Weather != "" || a.Mood != "" {
		var parts []string
		if a.Weather != "" {
			parts = append(parts, "天气"+string(a.Weather))
		}
		if a.Mood != "" {
			parts = append(parts, "心情"+string(a.Mood))
		}
		b.WriteString(strings.Join(parts, "，") + "。")
	}

	if a.ChildState != "" {
		fmt.Fprintf(&b, "孩子看起来很%s。", a.ChildState)
	}

	if len(a.Tags) > 0 {
		fmt.Fprintf(&b, "照片中有：%s。", strings.Join(a.Tags, "、"))
	}

	if len(a.Suggestions) > 0 {
		b.WriteString("\n根据照片分析，有以下建议：")
		for i, s := range a.Suggestions {
			fmt.Fprintf(&b, "\n%d. %s：%s", i+1, s.Category, s.Reasoning)
			if len(s.Items) > 0 {
				items := make([]string, 0, len(s.Items))
				for _, it := range s.Items {
					items = append(items, itemText(it))
				}
				b.WriteString("\n   - " + strings.Join(items, "、"))
			}
		}
	}

	return b.String()
}

func itemText(it models.SuggestionItem) string {
	if it.Qty == nil || *it.Qty == 0 {
		return it.Name
	}
	return fmt.Sprintf("%s(%s%s)", it.Name, strconv.FormatFloat(*it.Qty, 'f', -1, 64), it.Unit)
}

// AnalysisTitle is the title given to entries created from a photo.
func AnalysisTitle(t time.Time) string {
	return t.Format("2006/1/2") + " 的日记"
}
