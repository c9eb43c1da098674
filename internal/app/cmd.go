package app

import "strconv"

// Command はtravelblogバイナリのサブコマンドを表す。
type Command string

const (
	// CommandServe はAPIサーバーを起動する。引数なしの既定。
	CommandServe Command = "serve"
	// CommandWorker はスパムコメントと期限切れ管理者セッションの定期削除を実行する。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーマを適用する。"migrate down [N]"で巻き戻す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はdistrolessイメージのHEALTHCHECKから/healthを叩く。
	CommandHealthcheck Command = "healthcheck"
)

// commands は受け付けるサブコマンド名の一覧。
var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand はos.Args[1:]の先頭からサブコマンドを決める。
// 未指定や未知の名前はserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}

// MigrateArgs はmigrateサブコマンドの引数。
type MigrateArgs struct {
	Down  bool
	Steps int
}

// ParseMigrateArgs は "migrate [down [N]]" を解析する。
// Nが省略または不正な場合は1ステップとする。
func ParseMigrateArgs(args []string) MigrateArgs {
	if len(args) < 2 || args[1] != "down" {
		return MigrateArgs{}
	}

	steps := 1
	if len(args) >= 3 {
		if n, err := strconv.Atoi(args[2]); err == nil && n > 0 {
			steps = n
		}
	}
	return MigrateArgs{Down: true, Steps: steps}
}
