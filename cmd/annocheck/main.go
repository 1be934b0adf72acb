package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/speakline/internal/annotation"
	"github.com/iabetor/speakline/internal/config"
	"github.com/iabetor/speakline/internal/database"
)

func main() {
	configPath := flag.String("config", "configs/speakline.yaml", "配置文件路径")
	file := flag.String("file", "", "标注数据文件，默认使用配置中的 data.sentences_file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	path := *file
	if path == "" {
		path = cfg.Data.SentencesFile
	}

	switch args[0] {
	case "check":
		os.Exit(cmdCheck(path))
	case "import":
		cmdImport(cfg, path)
	case "history":
		cmdHistory(cfg)
	default:
		fmt.Fprintf(os.Stderr, "未知命令: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "speakline 标注数据工具")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "用法: annocheck [-config <path>] [-file <sentences.yaml>] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "命令:")
	fmt.Fprintln(os.Stderr, "  check    检查每个单词是否有标注、失爆字母是否存在")
	fmt.Fprintln(os.Stderr, "  import   把标注数据导入 SQLite 数据库")
	fmt.Fprintln(os.Stderr, "  history  显示最近的练习记录")
}

func loadSet(path string) *annotation.Set {
	if path == "" {
		fmt.Fprintln(os.Stderr, "没有指定标注文件，请使用 -file 或配置 data.sentences_file")
		os.Exit(1)
	}
	set, err := annotation.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return set
}

func openDB(cfg *config.Config) *database.DB {
	db, err := database.Open(filepath.Join(cfg.Data.Dir, "speakline.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return db
}

// cmdCheck 打印覆盖率问题，有问题时返回退出码 2。
func cmdCheck(path string) int {
	set := loadSet(path)
	issues := annotation.Check(set)
	if len(issues) == 0 {
		fmt.Printf("%d 个句子全部通过检查\n", set.Len())
		return 0
	}

	current := ""
	for _, is := range issues {
		if is.Sentence != current {
			current = is.Sentence
			fmt.Printf("\n%s\n", current)
		}
		switch is.Kind {
		case annotation.MissingAnnotation:
			if is.Suggestion != "" {
				fmt.Printf("  - %q 没有标注（是否应为 %q？）\n", is.Token, is.Suggestion)
			} else {
				fmt.Printf("  - %q 没有标注\n", is.Token)
			}
		case annotation.MissingMark:
			fmt.Printf("  - %q 中找不到要划掉的字母\n", is.Token)
		}
	}
	fmt.Printf("\n共 %d 个问题，涉及 %d 个句子\n", len(issues), set.Len())
	return 2
}

func cmdImport(cfg *config.Config, path string) {
	set := loadSet(path)
	db := openDB(cfg)
	defer db.Close()

	if err := db.SaveAnnotations(set); err != nil {
		fmt.Fprintf(os.Stderr, "导入失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("已导入 %d 个句子到 %s\n", set.Len(), db.Path())
}

func cmdHistory(cfg *config.Config) {
	db := openDB(cfg)
	defer db.Close()

	records, err := db.RecentPractice(20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("没有练习记录")
		return
	}
	for _, r := range records {
		status := "中断"
		if r.Completed {
			status = "完成"
		}
		fmt.Printf("%s  %.2fx  %-8s %s  %6dms  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Rate, r.Mode, status, r.Elapsed.Milliseconds(), r.Sentence)
	}
}
