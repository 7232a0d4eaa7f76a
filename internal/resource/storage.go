package resource

import "github.com/lex00/stackplan-aws-go/intrinsics"

// Bucket is AWS::S3::Bucket.
type Bucket struct {
	BucketName string `json:"BucketName"`
	Tags       []Tag  `json:"Tags"`
}

func (Bucket) ResourceType() string { return "AWS::S3::Bucket" }

// BucketPolicy is AWS::S3::BucketPolicy.
type BucketPolicy struct {
	Bucket         any                       `json:"Bucket"`
	PolicyDocument intrinsics.PolicyDocument `json:"PolicyDocument"`
}

func (BucketPolicy) ResourceType() string { return "AWS::S3::BucketPolicy" }

// FileSystem is AWS::EFS::FileSystem.
type FileSystem struct {
	Encrypted       *bool  `json:"Encrypted"`
	PerformanceMode string `json:"PerformanceMode"`
	FileSystemTags  []Tag  `json:"FileSystemTags"`
}

func (FileSystem) ResourceType() string { return "AWS::EFS::FileSystem" }

// MountTarget is AWS::EFS::MountTarget.
type MountTarget struct {
	FileSystemId   any   `json:"FileSystemId"`
	SubnetId       any   `json:"SubnetId"`
	SecurityGroups []any `json:"SecurityGroups"`
}

func (MountTarget) ResourceType() string { return "AWS::EFS::MountTarget" }
