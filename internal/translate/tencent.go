package translate

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"

	"github.com/iabetor/speakline/internal/logger"
)

// TencentTranslator 腾讯云机器翻译。
type TencentTranslator struct {
	client *tmt.Client
}

// NewTencentTranslator 创建翻译客户端。
func NewTencentTranslator(secretID, secretKey, region string) (*TencentTranslator, error) {
	if secretID == "" || secretKey == "" {
		return nil, fmt.Errorf("腾讯云翻译需要 SecretID 和 SecretKey")
	}
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tmt.tencentcloudapi.com"

	client, err := tmt.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建翻译客户端失败: %w", err)
	}

	logger.Info("[translate] 翻译客户端已初始化")
	return &TencentTranslator{client: client}, nil
}

// Translate 把英文句子翻译成目标语言。
func (t *TencentTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	request := tmt.NewTextTranslateRequest()
	request.SourceText = common.StringPtr(text)
	request.Source = common.StringPtr("en")
	request.Target = common.StringPtr(target)
	request.ProjectId = common.Int64Ptr(0)

	response, err := t.client.TextTranslateWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("翻译请求失败: %w", err)
	}
	if response.Response == nil || response.Response.TargetText == nil {
		return "", fmt.Errorf("翻译响应为空")
	}
	return *response.Response.TargetText, nil
}
