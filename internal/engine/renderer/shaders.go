package renderer

// Lambert shading with ambient, one shadowed directional light and a
// sky/ground hemisphere light, matching lighting.Scene.Irradiance.
const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoord;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;
uniform mat4 uLightSpace;

out vec3 vNormal;
out vec2 vTexCoord;
out vec4 vLightPos;

void main() {
	vec4 world = uModel * vec4(aPos, 1.0);
	vNormal = mat3(transpose(inverse(uModel))) * aNormal;
	vTexCoord = aTexCoord;
	vLightPos = uLightSpace * world;
	gl_Position = uProjection * uView * world;
}
`

const meshFragmentShader = `
#version 410 core

in vec3 vNormal;
in vec2 vTexCoord;
in vec4 vLightPos;

uniform sampler2D uTexture;
uniform sampler2DShadow uShadowMap;
uniform bool uShadows;
uniform vec3 uDiffuse;
uniform float uOpacity;

uniform vec3 uAmbient;
uniform vec3 uLightDir;
uniform vec3 uLightColor;
uniform vec3 uSkyColor;
uniform vec3 uGroundColor;

out vec4 FragColor;

// 3x3 PCF; 1.0 is fully lit.
float shadowFactor() {
	if (!uShadows) {
		return 1.0;
	}
	vec3 p = vLightPos.xyz / vLightPos.w * 0.5 + 0.5;
	if (p.z > 1.0) {
		return 1.0;
	}
	float sum = 0.0;
	for (int x = -1; x <= 1; x++) {
		for (int y = -1; y <= 1; y++) {
			sum += textureOffset(uShadowMap, p, ivec2(x, y));
		}
	}
	return sum / 9.0;
}

void main() {
	vec3 n = normalize(vNormal);
	if (!gl_FrontFacing) {
		n = -n;
	}

	float nDotL = max(dot(n, normalize(uLightDir)), 0.0);
	vec3 hemi = mix(uGroundColor, uSkyColor, 0.5 * n.y + 0.5);
	vec3 light = uAmbient + uLightColor * nDotL * shadowFactor() + hemi;

	vec4 tex = texture(uTexture, vTexCoord);
	FragColor = vec4(uDiffuse * tex.rgb * light, uOpacity * tex.a);
}
`

const lineVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uViewProj;
uniform mat4 uModel;

void main() {
	gl_Position = uViewProj * uModel * vec4(aPos, 1.0);
}
`

const lineFragmentShader = `
#version 410 core

uniform vec3 uColor;

out vec4 FragColor;

void main() {
	FragColor = vec4(uColor, 1.0);
}
`

const depthVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uLightSpace;
uniform mat4 uModel;

void main() {
	gl_Position = uLightSpace * uModel * vec4(aPos, 1.0);
}
`

const depthFragmentShader = `
#version 410 core

void main() {
}
`
