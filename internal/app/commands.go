package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iabetor/speakline/internal/logger"
)

const helpText = `命令: n/next 下一句, p/prev 上一句, 回车/play 朗读, stop 停止,
      rate <0.1-2.0> 设置语速, goto <序号> 跳转, list 列出句子, history 练习记录, q 退出`

// scanLines 逐行读取输入，读完或 ctx 取消后关闭 lines。
func scanLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil {
		logger.Warnf("[app] 读取输入失败: %v", err)
	}
}

// Handle 执行一条命令，返回 true 表示退出。
func (a *App) Handle(line string, out io.Writer) bool {
	fields := strings.Fields(line)
	cmd := ""
	if len(fields) > 0 {
		cmd = strings.ToLower(fields[0])
	}

	switch cmd {
	case "q", "quit", "exit":
		return true
	case "", "play":
		sentence := a.deck.Current()
		logger.Debugf("[app] 朗读: %q", sentence)
		a.engine.Play(sentence)
	case "stop":
		a.engine.Stop()
	case "n", "next":
		a.show(out, a.deck.Next())
	case "p", "prev":
		a.show(out, a.deck.Prev())
	case "goto":
		if len(fields) < 2 {
			fmt.Fprintln(out, "用法: goto <序号>")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(out, "无效的序号: %s\n", fields[1])
			return false
		}
		// 序号从 1 开始，和界面显示一致
		sentence, err := a.deck.Goto(n - 1)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		a.show(out, sentence)
	case "rate":
		if len(fields) < 2 {
			fmt.Fprintf(out, "当前语速: %.2f\n", a.engine.SpeechRate())
			return false
		}
		rate, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			fmt.Fprintf(out, "无效的语速: %s\n", fields[1])
			return false
		}
		a.engine.SetSpeechRate(rate)
		fmt.Fprintf(out, "语速: %.2f（下次朗读生效）\n", a.engine.SpeechRate())
	case "list":
		for i, s := range a.set.Sentences() {
			marker := " "
			if i == a.deck.Index() {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %2d. %s\n", marker, i+1, s)
		}
	case "history":
		a.printHistory(out)
	case "h", "help", "?":
		fmt.Fprintln(out, helpText)
	default:
		fmt.Fprintf(out, "未知命令: %s\n", cmd)
	}
	return false
}

func (a *App) printHistory(out io.Writer) {
	if a.db == nil {
		fmt.Fprintln(out, "没有练习记录")
		return
	}
	records, err := a.db.RecentPractice(10)
	if err != nil {
		fmt.Fprintf(out, "读取练习记录失败: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "没有练习记录")
		return
	}
	for _, r := range records {
		status := "中断"
		if r.Completed {
			status = "完成"
		}
		fmt.Fprintf(out, "%s  %.2fx  %-8s %s  %s\n",
			r.CreatedAt.Local().Format("01-02 15:04"), r.Rate, r.Mode, status, r.Sentence)
	}
}
