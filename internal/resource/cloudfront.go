package resource

// OriginAccessIdentity is AWS::CloudFront::CloudFrontOriginAccessIdentity.
type OriginAccessIdentity struct {
	CloudFrontOriginAccessIdentityConfig OriginAccessIdentityConfig `json:"CloudFrontOriginAccessIdentityConfig"`
}

func (OriginAccessIdentity) ResourceType() string {
	return "AWS::CloudFront::CloudFrontOriginAccessIdentity"
}

// OriginAccessIdentityConfig holds the identity comment.
type OriginAccessIdentityConfig struct {
	Comment string `json:"Comment"`
}

// Distribution is AWS::CloudFront::Distribution.
type Distribution struct {
	DistributionConfig DistributionConfig `json:"DistributionConfig"`
}

func (Distribution) ResourceType() string { return "AWS::CloudFront::Distribution" }

// DistributionConfig is the body of a distribution.
type DistributionConfig struct {
	Comment              string             `json:"Comment"`
	Enabled              bool               `json:"Enabled"`
	Aliases              []string           `json:"Aliases"`
	PriceClass           string             `json:"PriceClass"`
	HttpVersion          string             `json:"HttpVersion"`
	Origins              []Origin           `json:"Origins"`
	DefaultCacheBehavior CacheBehavior      `json:"DefaultCacheBehavior"`
	CacheBehaviors       []CacheBehavior    `json:"CacheBehaviors"`
	ViewerCertificate    *ViewerCertificate `json:"ViewerCertificate"`
}

// Origin is a distribution origin. One of the origin configs is set.
type Origin struct {
	Id                 string              `json:"Id"`
	DomainName         any                 `json:"DomainName"`
	CustomOriginConfig *CustomOriginConfig `json:"CustomOriginConfig"`
	S3OriginConfig     *S3OriginConfig     `json:"S3OriginConfig"`
}

// CustomOriginConfig describes an HTTP origin.
type CustomOriginConfig struct {
	HTTPPort             int    `json:"HTTPPort"`
	HTTPSPort            int    `json:"HTTPSPort"`
	OriginProtocolPolicy string `json:"OriginProtocolPolicy"`
}

// S3OriginConfig describes a bucket origin read through an access identity.
type S3OriginConfig struct {
	OriginAccessIdentity any `json:"OriginAccessIdentity"`
}

// CacheBehavior controls caching for a path.
type CacheBehavior struct {
	PathPattern          string          `json:"PathPattern"`
	TargetOriginId       string          `json:"TargetOriginId"`
	ViewerProtocolPolicy string          `json:"ViewerProtocolPolicy"`
	AllowedMethods       []string        `json:"AllowedMethods"`
	CachedMethods        []string        `json:"CachedMethods"`
	Compress             bool            `json:"Compress"`
	MinTTL               int             `json:"MinTTL"`
	DefaultTTL           int             `json:"DefaultTTL"`
	MaxTTL               int             `json:"MaxTTL"`
	ForwardedValues      ForwardedValues `json:"ForwardedValues"`
}

// ForwardedValues lists what the distribution forwards to the origin.
type ForwardedValues struct {
	QueryString *bool    `json:"QueryString"`
	Cookies     *Cookies `json:"Cookies"`
	Headers     []string `json:"Headers"`
}

// Cookies selects forwarded cookies.
type Cookies struct {
	Forward string `json:"Forward"`
}

// ViewerCertificate selects the distribution's certificate.
type ViewerCertificate struct {
	AcmCertificateArn      string `json:"AcmCertificateArn"`
	SslSupportMethod       string `json:"SslSupportMethod"`
	MinimumProtocolVersion string `json:"MinimumProtocolVersion"`
}
