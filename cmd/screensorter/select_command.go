package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/screensorter/internal/config"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select [folder]",
		Short: "选择要整理的文件夹（不传参数时显示当前选择）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			dir, st, err := ctx.loadState(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("定位配置目录失败：%w", err)
			}

			if len(args) == 0 {
				if st.Folder() == "" {
					fmt.Fprintln(out, "尚未选择文件夹。")
					return nil
				}
				fmt.Fprintln(out, st.Folder())
				return nil
			}

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return &config.Error{Code: config.ErrCodeFolderInvalid, Path: args[0], Err: err}
			}
			fi, err := ctx.fsys.Stat(abs)
			if err != nil {
				return &config.Error{Code: config.ErrCodeFolderInvalid, Path: abs, Err: err}
			}
			if !fi.IsDir() {
				return &config.Error{Code: config.ErrCodeFolderInvalid, Path: abs, Err: errors.New("不是目录")}
			}

			if err := config.SaveState(ctx.fsys, dir, st.WithFolder(abs)); err != nil {
				return fmt.Errorf("保存 config.json 失败：%w", err)
			}
			fmt.Fprintf(out, "已选择文件夹：%s\n", abs)
			return nil
		},
	}
}
