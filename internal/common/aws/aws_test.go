package aws

import (
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

var (
	_ SESAPI = (*ses.Client)(nil)
	_ SNSAPI = (*sns.Client)(nil)
)
