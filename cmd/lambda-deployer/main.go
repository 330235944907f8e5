// cmd/lambda-deployer provisions the AWS resources cmd/lambda-handler needs
// to run: an S3 bucket for uploaded CSVs, an IAM execution role with S3
// access, and a Lambda function (plus a public Function URL) running the
// zip bundle given on the command line. Every resource name and the
// deploy-target region/profile come from flags rather than being baked in,
// so the same binary can stand up a dev stack and a prod stack side by
// side. In case this Lambda approach is viable long-term, maybe replace
// this with CloudFormation or Terraform.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamTypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdaTypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

var assumeRolePolicy = `{
    "Version": "2012-10-17",
	"Statement": [
        {
            "Effect": "Allow",
            "Action": "sts:AssumeRole",
			"Principal": {"Service": "lambda.amazonaws.com"}
        }
    ]
}`

var basicExecutionPolicies = []string{
	"arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole", // basic logging permissions
}

// deployConfig is every resource name and region/profile knob this command
// touches, all flag-driven so the zip bundle is the only positional
// argument - the rest is this module's own configuration, not the
// hand-picked strings a one-off provisioning script would bake in.
type deployConfig struct {
	region      string
	profile     string
	bucket      string
	roleName    string
	policyName  string
	funcName    string
	handlerName string
	timeoutSecs int32
}

func parseFlags(args []string) (*deployConfig, string, error) {
	fs := flag.NewFlagSet("lambda-deployer", flag.ContinueOnError)
	cfg := &deployConfig{}
	fs.StringVar(&cfg.region, "region", "eu-central-1", "AWS region to deploy into")
	fs.StringVar(&cfg.profile, "profile", "", "shared AWS config profile to use (empty uses the default credential chain)")
	fs.StringVar(&cfg.bucket, "bucket", "colexec-csv-inputs", "S3 bucket holding CSVs the evaluator reads from")
	fs.StringVar(&cfg.roleName, "role-name", "colexec_execution_role", "IAM execution role for the Lambda function")
	fs.StringVar(&cfg.policyName, "policy-name", "colexec-access-s3", "inline IAM policy name granting the role S3 access")
	fs.StringVar(&cfg.funcName, "function-name", "colexec-eval-gateway", "Lambda function name")
	fs.StringVar(&cfg.handlerName, "handler", "main", "Lambda handler entry point inside the zip bundle")
	timeout := fs.Int("timeout-secs", 30, "Lambda invocation timeout in seconds")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	cfg.timeoutSecs = int32(*timeout)
	if fs.NArg() != 1 {
		return nil, "", errors.New("need to supply the lambda zip bundle as the only positional argument")
	}
	return cfg, fs.Arg(0), nil
}

func run() error {
	cfg, lambdaPkg, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	zipData, err := os.ReadFile(lambdaPkg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.region)}
	if cfg.profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return err
	}
	log.Printf("config loaded for region %v", awsCfg.Region)

	s3client := s3.NewFromConfig(awsCfg)
	if err := ensureBucket(ctx, s3client, cfg.bucket, cfg.region); err != nil {
		return err
	}

	iamClient := iam.NewFromConfig(awsCfg)
	role, err := ensureExecutionRole(ctx, iamClient, cfg.roleName, cfg.policyName, cfg.bucket)
	if err != nil {
		return err
	}
	log.Printf("execution role ready: %v", *role.Arn)

	lambdaClient := lambda.NewFromConfig(awsCfg)
	funcURL, err := ensureFunction(ctx, lambdaClient, cfg, role, zipData)
	if err != nil {
		return err
	}
	log.Printf("lambda URL: %v", funcURL)
	return nil
}

// ensureBucket creates bucket if it does not already exist and locks down
// public access either way.
func ensureBucket(ctx context.Context, s3client *s3.Client, bucket, region string) error {
	_, err := s3client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &bucket})
	if err == nil {
		log.Printf("bucket %v exists already", bucket)
	} else {
		// TODO: distinguish 404 (missing) from 403 (exists, no access) instead
		// of treating every HeadBucket error as "needs creating".
		if _, err := s3client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: &bucket,
			CreateBucketConfiguration: &s3Types.CreateBucketConfiguration{
				LocationConstraint: s3Types.BucketLocationConstraint(region),
			},
		}); err != nil {
			return err
		}
		log.Printf("created bucket %v", bucket)
	}

	_, err = s3client.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: &bucket,
		PublicAccessBlockConfiguration: &s3Types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       true,
			BlockPublicPolicy:     true,
			IgnorePublicAcls:      true,
			RestrictPublicBuckets: true,
		},
	})
	return err
}

// ensureExecutionRole returns the named role, creating it if it does not
// exist yet, and in either case puts an inline S3 read/write policy scoped
// to bucket and attaches the basic Lambda execution managed policy.
func ensureExecutionRole(ctx context.Context, iamClient *iam.Client, roleName, policyName, bucket string) (*iamTypes.Role, error) {
	var role *iamTypes.Role
	log.Printf("getting role %v", roleName)
	getRole, err := iamClient.GetRole(ctx, &iam.GetRoleInput{RoleName: &roleName})
	if err == nil {
		log.Printf("role exists")
		// TODO: compare *getRole.Role.AssumeRolePolicyDocument against
		// assumeRolePolicy instead of assuming it still matches.
		role = getRole.Role
	}
	var notFound *iamTypes.NoSuchEntityException
	if err != nil {
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Printf("role does not exist, creating")
		created, err := iamClient.CreateRole(ctx, &iam.CreateRoleInput{
			RoleName:                 aws.String(roleName),
			AssumeRolePolicyDocument: &assumeRolePolicy,
		})
		if err != nil {
			return nil, err
		}
		role = created.Role
		// the role isn't assumable for the next few seconds in some regions;
		// callers hitting AccessDenied right after creation should retry.
	}

	if _, err := iamClient.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		PolicyName: &policyName,
		RoleName:   role.RoleName,
		PolicyDocument: aws.String(fmt.Sprintf(`{
			"Version": "2012-10-17",
			"Statement": [
				{
					"Sid": "ReadWriteS3",
					"Effect": "Allow",
					"Action": [
						"s3:GetObject",
						"s3:PutObject",
						"s3:DeleteObject"
					],
					"Resource": "arn:aws:s3:::%v/*"
				}
			]
		}`, bucket)),
	}); err != nil {
		return nil, err
	}
	log.Println("inline S3-access policy attached")

	for _, arn := range basicExecutionPolicies {
		arn := arn
		if _, err := iamClient.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  &roleName,
			PolicyArn: &arn,
		}); err != nil {
			return nil, err
		}
		log.Printf("attached policy %v", arn)
	}
	return role, nil
}

// ensureFunction creates or updates the Lambda function and its public
// Function URL, returning the URL.
func ensureFunction(ctx context.Context, lambdaClient *lambda.Client, cfg *deployConfig, role *iamTypes.Role, zipData []byte) (string, error) {
	_, err := lambdaClient.GetFunction(ctx, &lambda.GetFunctionInput{FunctionName: &cfg.funcName})
	if err == nil {
		log.Printf("function exists, updating function code")
		if _, err := lambdaClient.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
			FunctionName: &cfg.funcName,
			ZipFile:      zipData,
		}); err != nil {
			return "", err
		}
	} else {
		var notFound *lambdaTypes.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return "", err
		}
		log.Printf("lambda does not exist, creating")
		fn, err := lambdaClient.CreateFunction(ctx, &lambda.CreateFunctionInput{
			FunctionName: &cfg.funcName,
			Role:         role.Arn,
			Runtime:      lambdaTypes.RuntimeGo1x,
			Handler:      aws.String(cfg.handlerName),
			Code:         &lambdaTypes.FunctionCode{ZipFile: zipData},
			Timeout:      aws.Int32(cfg.timeoutSecs),
			Environment: &lambdaTypes.Environment{
				Variables: map[string]string{
					"COLEXEC_DATA_BUCKET": cfg.bucket,
				},
			},
		})
		if err != nil {
			return "", err
		}
		log.Printf("function created: %v", *fn.FunctionArn)

		fu, err := lambdaClient.CreateFunctionUrlConfig(ctx, &lambda.CreateFunctionUrlConfigInput{
			FunctionName: &cfg.funcName,
			AuthType:     lambdaTypes.FunctionUrlAuthTypeNone,
		})
		if err != nil {
			return "", err
		}
		log.Printf("function URL created: %v", *fu.FunctionUrl)

		if _, err := lambdaClient.AddPermission(ctx, &lambda.AddPermissionInput{
			FunctionName:        &cfg.funcName,
			Action:              aws.String("lambda:InvokeFunctionUrl"),
			Principal:           aws.String("*"),
			StatementId:         aws.String("FunctionURLAllowPublicAccess"),
			FunctionUrlAuthType: lambdaTypes.FunctionUrlAuthTypeNone,
		}); err != nil {
			return "", err
		}
	}

	urlc, err := lambdaClient.GetFunctionUrlConfig(ctx, &lambda.GetFunctionUrlConfigInput{FunctionName: &cfg.funcName})
	if err != nil {
		return "", err
	}
	return *urlc.FunctionUrl, nil
}
