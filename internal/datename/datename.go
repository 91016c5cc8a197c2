package datename

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/John-Robertt/screensorter/internal/domain"
)

const (
	KindNoMatch       = "no_match"
	KindInvalidFormat = "invalid_format"
	KindOutOfRange    = "out_of_range"
)

// 四位年 + 分隔符 + 1~2 位月 + 分隔符 + 1~2 位日。
// 两处分隔符各自独立取自 [-_/]，不要求相同；不校验日历。
var dateRE = regexp.MustCompile(`([0-9]{4})[-_/]([0-9]{1,2})[-_/]([0-9]{1,2})`)

// 与 dateRE 相同，但必须从名字开头匹配（用于识别日期文件夹）。
var leadingDateRE = regexp.MustCompile(`^([0-9]{4})[-_/]([0-9]{1,2})[-_/]([0-9]{1,2})`)

var digitsRE = regexp.MustCompile(`^[0-9]+$`)

type UnmatchedError struct {
	// Kind: no_match / invalid_format / out_of_range
	Kind string
	Name string
}

func (e *UnmatchedError) Error() string {
	switch e.Kind {
	case KindNoMatch:
		return "无法从文件名 " + strconv.Quote(e.Name) + " 中解析出日期"
	case KindInvalidFormat:
		return "文件名格式无效：" + strconv.Quote(e.Name) + "（需要恰好 5 段以 '-' 分隔，前三段为 年-月-日）"
	case KindOutOfRange:
		return "文件名 " + strconv.Quote(e.Name) + " 中的日期超出范围（月 1~12，日 1~31）"
	default:
		return "unmatched"
	}
}

// Extract 在文件名任意位置查找第一个日期片段（first match wins）。
// 失败返回 *UnmatchedError（no_match）。
func Extract(name string) (domain.InferredDate, error) {
	m := dateRE.FindStringSubmatch(name)
	if m == nil {
		return domain.InferredDate{}, &UnmatchedError{Kind: KindNoMatch, Name: name}
	}
	return fromGroups(m), nil
}

// ExtractLeading 只接受以日期开头的名字（例如 "2024-3-7"、"2024-03-07 旅行"）。
func ExtractLeading(name string) (domain.InferredDate, bool) {
	m := leadingDateRE.FindStringSubmatch(name)
	if m == nil {
		return domain.InferredDate{}, false
	}
	return fromGroups(m), true
}

// ExtractDash5 是最早版本的严格解析：去掉扩展名后按 '-' 切分，必须恰好 5 段，
// 且前三段依次为 4 位年、1~2 位月、1~2 位日（例如 2024-01-05-21-30.png）。
func ExtractDash5(name string) (domain.InferredDate, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "-")
	if len(parts) != 5 {
		return domain.InferredDate{}, &UnmatchedError{Kind: KindInvalidFormat, Name: name}
	}
	y, m, d := parts[0], parts[1], parts[2]
	if len(y) != 4 || !isDigits(y) || !isShortNumber(m) || !isShortNumber(d) {
		return domain.InferredDate{}, &UnmatchedError{Kind: KindInvalidFormat, Name: name}
	}
	return domain.InferredDate{Year: atoi(y), Month: atoi(m), Day: atoi(d)}, nil
}

func fromGroups(m []string) domain.InferredDate {
	return domain.InferredDate{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3])}
}

func isShortNumber(s string) bool {
	return len(s) >= 1 && len(s) <= 2 && isDigits(s)
}

func isDigits(s string) bool {
	return digitsRE.MatchString(s)
}

// 只会收到正则已保证的纯数字片段。
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
