package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/yeisme/dataroom/pkg/configs"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// outputFormat -o 优先，其次 client.output.
func outputFormat() string {
	f := output
	if f == "" {
		f = configs.GetConfig().Client.Output
	}

	switch f = strings.ToLower(f); f {
	case formatJSON, formatYAML:
		return f
	case "yml":
		return formatYAML
	default:
		return formatTable
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	default:
		b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(b))

		return err
	}
}

// render 按输出格式打印 v，table 格式时调用 table 逐行写入.
func render(w io.Writer, v any, table func(tw *tabwriter.Writer)) error {
	if format := outputFormat(); format != formatTable {
		return encode(w, format, v)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	table(tw)

	return tw.Flush()
}
