package resource

// EventRule is AWS::Events::Rule.
type EventRule struct {
	Name         string         `json:"Name"`
	Description  string         `json:"Description"`
	State        string         `json:"State"`
	EventPattern map[string]any `json:"EventPattern"`
	Targets      []EventTarget  `json:"Targets"`
}

func (EventRule) ResourceType() string { return "AWS::Events::Rule" }

// EventTarget receives matching events.
type EventTarget struct {
	Id               string            `json:"Id"`
	Arn              any               `json:"Arn"`
	RoleArn          any               `json:"RoleArn"`
	InputTransformer *InputTransformer `json:"InputTransformer"`
}

// InputTransformer rewrites an event before it reaches the target.
type InputTransformer struct {
	InputPathsMap map[string]string `json:"InputPathsMap"`
	InputTemplate string            `json:"InputTemplate"`
}

// Function is AWS::Lambda::Function.
type Function struct {
	FunctionName string               `json:"FunctionName"`
	Description  string               `json:"Description"`
	Handler      string               `json:"Handler"`
	Runtime      string               `json:"Runtime"`
	Role         any                  `json:"Role"`
	Timeout      int                  `json:"Timeout"`
	Code         FunctionCode         `json:"Code"`
	Environment  *FunctionEnvironment `json:"Environment"`
}

func (Function) ResourceType() string { return "AWS::Lambda::Function" }

// FunctionCode locates the function package.
type FunctionCode struct {
	S3Bucket any    `json:"S3Bucket"`
	S3Key    string `json:"S3Key"`
}

// FunctionEnvironment holds function environment variables.
type FunctionEnvironment struct {
	Variables map[string]string `json:"Variables"`
}

// Permission is AWS::Lambda::Permission.
type Permission struct {
	Action       string `json:"Action"`
	FunctionName any    `json:"FunctionName"`
	Principal    string `json:"Principal"`
	SourceArn    any    `json:"SourceArn"`
}

func (Permission) ResourceType() string { return "AWS::Lambda::Permission" }
