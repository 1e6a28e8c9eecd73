package build_info

// Set at build time with -ldflags "-X github.com/warp-contracts/vault/src/utils/build_info.Version=..."
var Version = "dev"
